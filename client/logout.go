package client

import (
	"fmt"
	"net/url"
	"time"

	"ucenter/internal/model"
	"ucenter/pkg/logger"
)

// ParentMessage 发给宿主页面的消息（浏览器中对应postMessage）
type ParentMessage struct {
	Action    string   `json:"action"`
	URL       string   `json:"url,omitempty"`
	NewWindow bool     `json:"new_window,omitempty"`
	Domain    string   `json:"domain,omitempty"`
	Cookies   []string `json:"cookies,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// 宿主消息类型
const (
	ActionNavigate      = "navigate"
	ActionDeleteCookies = "deleteCookies"
	ActionLogout        = "logout"
)

// ParentChannel 与宿主页面的单向通道。未嵌入时实现可为空操作。
type ParentChannel interface {
	Notify(msg ParentMessage) error
}

// WebStorage 本地存储抽象（localStorage/sessionStorage）
type WebStorage interface {
	ClearLocal()
	ClearSession()
}

// RedirectMode 登出后跳转策略
type RedirectMode string

const (
	RedirectCurrent RedirectMode = "current" // 回到当前页
	RedirectCustom  RedirectMode = "custom"  // 指定地址
	RedirectAuto    RedirectMode = "auto"    // 子域回根域首页，根域回当前路径
)

// LogoutOptions 登出选项
type LogoutOptions struct {
	Mode      RedirectMode
	CustomURL string
}

// LogoutOrchestrator 登出编排器。按固定顺序执行清理步骤，
// 单步失败只记录并继续：登出必须尽力走完，任何一步都不能
// 让用户卡在"半登出"状态。
type LogoutOrchestrator struct {
	store    SessionStore
	storage  WebStorage
	parent   ParentChannel
	nav      Navigator
	inFrame  bool // 是否嵌入在宿主页面中（含跨域无法探测的情形）
	current  *url.URL
	casBase  string
	hostname string

	// 各步骤间的等待时间，测试中可调小
	ParentWait  time.Duration // 通知宿主清Cookie后的等待
	NavFallback time.Duration // 委托宿主跳转后本地兜底跳转的延迟
	SettleDelay time.Duration // 未嵌入时跳转前的短暂停顿
}

// NewLogoutOrchestrator 创建登出编排器。current为当前页地址，
// inFrame表示页面是否被宿主嵌入。
func NewLogoutOrchestrator(store SessionStore, storage WebStorage, parent ParentChannel, nav Navigator, current *url.URL, inFrame bool, casBase string) *LogoutOrchestrator {
	return &LogoutOrchestrator{
		store:       store,
		storage:     storage,
		parent:      parent,
		nav:         nav,
		inFrame:     inFrame,
		current:     current,
		casBase:     casBase,
		hostname:    current.Hostname(),
		ParentWait:  300 * time.Millisecond,
		NavFallback: time.Second,
		SettleDelay: 200 * time.Millisecond,
	}
}

// Logout 执行完整登出流程
func (o *LogoutOrchestrator) Logout(opts LogoutOptions) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Logout aborted, falling back to emergency cleanup: %v", r)
			o.emergencyCleanup()
		}
	}()

	// 1. 趁Cookie还在，先取CAS令牌
	var casToken string
	o.step("capture cas token", func() error {
		casToken, _ = o.store.Get(model.CookieCASToken)
		return nil
	})

	// 2. 嵌入时委托宿主清根域Cookie，等它处理完
	o.step("delegate cookie cleanup", func() error {
		return o.delegateCookieCleanup()
	})

	// 3. 通知宿主本页即将登出，附带目标地址
	target := o.redirectTarget(opts)
	o.step("notify logout", func() error {
		if !o.inFrame {
			return nil
		}
		return o.parent.Notify(ParentMessage{
			Action:    ActionLogout,
			URL:       target,
			Timestamp: time.Now().UnixMilli(),
			Source:    "ucenter",
		})
	})

	// 4. 清空本地存储
	o.step("clear web storage", func() error {
		o.storage.ClearLocal()
		o.storage.ClearSession()
		return nil
	})

	// 5. 本地清空当前可见的全部Cookie，凭证名单兜底补刀
	o.step("clear cookies", func() error {
		o.clearAllCookies()
		return nil
	})

	// 6. 还有残留且被嵌入时，再委托宿主清一次
	o.step("retry cookie cleanup", func() error {
		if !o.inFrame || len(o.store.Names()) == 0 {
			return nil
		}
		return o.delegateCookieCleanup()
	})

	// 7. 拼接统一认证中心的登出地址
	logoutURL := o.buildCASLogoutURL(casToken)

	// 8. 跳转。嵌入时委托宿主，并留一个本地兜底。
	o.step("navigate", func() error {
		if o.inFrame {
			err := o.parent.Notify(ParentMessage{Action: ActionNavigate, URL: logoutURL})
			After(o.NavFallback, func() { o.nav.Assign(logoutURL) })
			return err
		}
		time.Sleep(o.SettleDelay)
		o.nav.Assign(logoutURL)
		return nil
	})
}

// step 单步执行，失败与panic都只记录不中断
func (o *LogoutOrchestrator) step(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Logout step %q panicked: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		logger.Warn("Logout step %q failed: %v", name, err)
	}
}

func (o *LogoutOrchestrator) delegateCookieCleanup() error {
	if !o.inFrame {
		return nil
	}
	err := o.parent.Notify(ParentMessage{
		Action:  ActionDeleteCookies,
		Domain:  RootDomain(o.hostname),
		Cookies: model.CredentialCookieNames,
	})
	time.Sleep(o.ParentWait)
	return err
}

// redirectTarget 按策略计算登出后最终回到的地址
func (o *LogoutOrchestrator) redirectTarget(opts LogoutOptions) string {
	switch opts.Mode {
	case RedirectCustom:
		if opts.CustomURL != "" {
			return opts.CustomURL
		}
		return o.current.String()
	case RedirectAuto:
		root := RootDomain(o.hostname)
		if o.hostname != root {
			return fmt.Sprintf("%s://%s/", o.current.Scheme, root)
		}
		return o.current.String()
	default:
		return o.current.String()
	}
}

// buildCASLogoutURL 拼接统一认证中心登出地址，
// 携带回跳地址与CAS令牌
func (o *LogoutOrchestrator) buildCASLogoutURL(casToken string) string {
	q := url.Values{}
	q.Set("redirect_uri", o.redirectTarget(LogoutOptions{Mode: RedirectAuto}))
	if casToken != "" {
		q.Set("access_token", casToken)
	}
	return o.casBase + "?" + q.Encode()
}

// clearAllCookies 枚举存储中现存的全部Cookie名一并清掉，
// 再叠加固定的凭证名单，防止枚举不到的残留
func (o *LogoutOrchestrator) clearAllCookies() {
	names := append(o.store.Names(), model.CredentialCookieNames...)
	ClearAll(o.store, o.hostname, names...)
}

// emergencyCleanup 兜底清理：流程整体失败时至少保证
// 本地凭证被清掉并离开当前页
func (o *LogoutOrchestrator) emergencyCleanup() {
	o.storage.ClearLocal()
	o.storage.ClearSession()
	o.clearAllCookies()
	o.nav.Assign(fmt.Sprintf("%s://%s/", o.current.Scheme, RootDomain(o.hostname)))
}
