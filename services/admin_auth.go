package services

import (
	"errors"
	"os"

	"github.com/alphabatem/common/context"
	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const ADMIN_AUTH_SVC = "admin_auth_svc"

var ErrInvalidCredentials = errors.New("invalid admin credentials")

// AdminAuthService checks the single admin password against a bcrypt hash
// and issues bearer tokens.
type AdminAuthService struct {
	context.DefaultService

	passwordHash []byte
	jwtSvc       *JWTService
}

func NewAdminAuthService(passwordHash string, jwtSvc *JWTService) *AdminAuthService {
	return &AdminAuthService{passwordHash: []byte(passwordHash), jwtSvc: jwtSvc}
}

func (svc AdminAuthService) Id() string {
	return ADMIN_AUTH_SVC
}

func (svc *AdminAuthService) Configure(ctx *context.Context) error {
	svc.passwordHash = []byte(os.Getenv("ADMIN_PASSWORD_HASH"))
	return svc.DefaultService.Configure(ctx)
}

func (svc *AdminAuthService) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	if len(svc.passwordHash) == 0 {
		log.Warn("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}
	return nil
}

func (svc *AdminAuthService) Login(req dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if len(svc.passwordHash) == 0 {
		return nil, shared.NewUnauthorizedError(ErrInvalidCredentials, "Admin login disabled")
	}
	if err := bcrypt.CompareHashAndPassword(svc.passwordHash, []byte(req.Password)); err != nil {
		log.Warn("Failed admin login attempt")
		return nil, shared.NewUnauthorizedError(ErrInvalidCredentials, "Invalid password")
	}

	token, err := svc.jwtSvc.ToJWT(AdminRole)
	if err != nil {
		return nil, shared.NewInternalError(err, "")
	}

	return &dto.AdminLoginResponse{
		Token:     token,
		ExpiresIn: int64(svc.jwtSvc.AccessTokenDuration.Seconds()),
	}, nil
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
