package client

import (
	"net/url"
	"strings"
)

// FromURLParam 登录页携带来源地址的查询参数名
const FromURLParam = "fromurl"

// Redirector 登录成功后的跳转决策
type Redirector struct {
	nav     Navigator
	homeURL string
}

// NewRedirector 创建跳转决策器
func NewRedirector(nav Navigator, homeURL string) *Redirector {
	return &Redirector{nav: nav, homeURL: homeURL}
}

// AfterLogin 根据当前页查询参数决定去向。
// 存在fromurl时原样跳回来源地址，其余查询参数剥掉fromurl后
// 重新拼接带上；否则以Replace回首页，不污染历史。
// fromurl的值不做白名单校验，与来源页约定一致。
func (r *Redirector) AfterLogin(query url.Values) {
	from := query.Get(FromURLParam)
	if from == "" {
		r.nav.Replace(r.homeURL)
		return
	}

	rest := url.Values{}
	for k, vs := range query {
		if k == FromURLParam {
			continue
		}
		for _, v := range vs {
			rest.Add(k, v)
		}
	}

	target := from
	if len(rest) > 0 {
		sep := "?"
		if strings.Contains(from, "?") {
			sep = "&"
		}
		target += sep + rest.Encode()
	}
	r.nav.Assign(target)
}
