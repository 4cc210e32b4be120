package service

import "errors"

// 哨兵错误：对外统一语义，隐藏底层实现细节。
// handler 层通过 errors.Is 映射为 HTTP 状态码。
var (
	// ErrInvalidInput 请求参数非法
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials 用户名或密码错误（登录时统一返回，防止用户枚举）
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountSuspended 账号被停用，与凭证错误区分，提示用户联系管理员
	ErrAccountSuspended = errors.New("account suspended")
	// ErrUserNotFound 用户不存在（仅用于非登录场景）
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists 用户名已被占用
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrSamePassword 新密码与当前密码相同
	ErrSamePassword = errors.New("new password must be different from current password")
	// ErrPasswordTooShort 新密码低于最小长度
	ErrPasswordTooShort = errors.New("new password too short")
	// ErrWrongPassword 当前密码校验失败
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrPasswordAlreadyChanged 强制改密只允许仍在用初始密码的账号
	ErrPasswordAlreadyChanged = errors.New("password already changed")
	// ErrSelfAction 禁止对自己执行的管理操作（停用、删除、降级）
	ErrSelfAction = errors.New("cannot perform this action on your own account")

	// ErrNewsNotFound 新闻不存在
	ErrNewsNotFound = errors.New("news not found")
	// ErrEventNotFound 活动不存在
	ErrEventNotFound = errors.New("event not found")
	// ErrMemberNotFound 企业会员不存在
	ErrMemberNotFound = errors.New("corporate member not found")
	// ErrEventFull 活动报名已满
	ErrEventFull = errors.New("event is full")
	// ErrRegistrationClosed 活动当前不接受报名
	ErrRegistrationClosed = errors.New("registration is not open")
	// ErrNoAttachment 活动没有可下载的附件
	ErrNoAttachment = errors.New("event has no attachment")

	// ErrInternal 内部错误（对外不暴露细节）
	ErrInternal = errors.New("internal server error")
)
