package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"ucenter/internal/model"
	"ucenter/internal/repository"
	"ucenter/pkg/logger"
)

// EmailService 邮箱验证码服务接口
type EmailService interface {
	// SendCode 生成并发送验证码
	SendCode(ctx context.Context, email, typ string) error
}

// emailService 邮箱验证码服务实现
type emailService struct {
	codeRepo repository.EmailCodeRepository
	codeTTL  time.Duration
	devMode  bool
}

// NewEmailService 创建邮箱验证码服务实例
func NewEmailService(codeRepo repository.EmailCodeRepository, codeTTL time.Duration, devMode bool) EmailService {
	return &emailService{
		codeRepo: codeRepo,
		codeTTL:  codeTTL,
		devMode:  devMode,
	}
}

// SendCode 生成并发送验证码
func (s *emailService) SendCode(ctx context.Context, email, typ string) error {
	if typ != model.EmailTypeRegister && typ != model.EmailTypeBackPassword {
		return fmt.Errorf("unknown email code type: %s", typ)
	}

	code, err := generateCode(6)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.codeRepo.SaveCode(ctx, email, typ, code, s.codeTTL); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	if s.devMode {
		logger.Info("Verification code for %s (%s): %s", email, typ, code)
		return nil
	}

	// TODO: 接入SMTP发送，目前部署在网关侧统一发信
	logger.Warn("SMTP not configured, code for %s not delivered", email)
	return nil
}

// generateCode 生成n位数字验证码
func generateCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
