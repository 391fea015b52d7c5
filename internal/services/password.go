package services

import (
	"context"
	"crypto/rand"
	"math/big"
)

const tempPasswordLength = 10

// GenerateTempPassword returns a random password with at least one digit, one uppercase letter and one symbol
func GenerateTempPassword() (string, error) {
	const (
		digits  = "23456789"
		uppers  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
		lowers  = "abcdefghijkmnpqrstuvwxyz"
		symbols = "!@#$%&*"
	)
	result := make([]byte, tempPasswordLength)

	for i, charset := range []string{digits, uppers, symbols} {
		c, err := randomChar(charset)
		if err != nil {
			return "", err
		}
		result[i] = c
	}
	all := digits + uppers + lowers + symbols
	for i := 3; i < tempPasswordLength; i++ {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		result[i] = c
	}

	for i := len(result) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}

func randomChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

// ResetPassword replaces a user's password with a temporary one, revokes their
// refresh tokens and emails the new password.
func (s *UserService) ResetPassword(ctx context.Context, actor Actor, id uint) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	temporary, err := GenerateTempPassword()
	if err != nil {
		return err
	}
	hashedPassword, err := HashPassword(temporary)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashedPassword
	if err := s.repos.User.Update(ctx, user); err != nil {
		return err
	}
	if err := s.repos.RefreshToken.DeleteByUser(ctx, id); err != nil {
		return err
	}

	recipient := *user
	dispatch(s.worker, func(ctx context.Context) error {
		return s.emailService.SendPasswordReset(ctx, &recipient, temporary)
	})
	return s.auditSvc.Log(ctx, nil, actor, "RESET_PASSWORD", "User", id, "Password reset by administrator")
}
