package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务状态码。所有业务响应的HTTP状态均为200，客户端只根据code分支。
const (
	CodeOK             = 20000 // 成功
	CodeTicketExpired  = 20001 // 扫码票据已过期
	CodeSessionExpired = 20009 // 会话已过期，需要重新登录
	CodeBusinessError  = 20010 // 通用业务失败
)

// Response 通用API响应结构
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeOK,
		Msg:  "操作成功",
		Data: data,
	})
}

// Fail 返回业务失败响应（HTTP 200 + 业务码）
func Fail(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code: code,
		Msg:  msg,
	})
}

// SessionExpired 返回会话过期响应
func SessionExpired(c *gin.Context, msg string) {
	if msg == "" {
		msg = "登录已过期，请重新登录"
	}
	c.JSON(http.StatusOK, Response{
		Code: CodeSessionExpired,
		Msg:  msg,
	})
}
