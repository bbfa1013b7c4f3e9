package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gostore/internal/identity/entity"
	"github.com/shandysiswandi/gostore/internal/identity/outbound/db"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/hash"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/secretbox"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
	vusecase "github.com/shandysiswandi/gostore/internal/verification/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testConfig = `
modules:
  identity:
    tx_timeout: 3
    default_role: customer
    password_reset_ttl_minutes: 20
`

type mockRepoDB struct{ mock.Mock }

func (m *mockRepoDB) DoInTx(ctx context.Context, opts pgx.TxOptions, timeout time.Duration, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if err := m.Called(opts, timeout).Error(0); err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx, nil)
}

// inTx matches a context carrying the transaction deadline.
var inTx = mock.MatchedBy(func(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
})

func (m *mockRepoDB) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockRepoDB) GetUserByPhone(ctx context.Context, phone string) (*entity.User, error) {
	args := m.Called(ctx, phone)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockRepoDB) CreateUser(ctx context.Context, q db.Querier, u entity.NewUser) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockRepoDB) CreateProfile(ctx context.Context, q db.Querier, p entity.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepoDB) CreatePasswordReset(ctx context.Context, pr entity.PasswordReset) error {
	return m.Called(ctx, pr).Error(0)
}

func (m *mockRepoDB) UsePasswordReset(ctx context.Context, q db.Querier, userID int64, tokenHash string, now time.Time) error {
	return m.Called(ctx, userID, tokenHash, now).Error(0)
}

func (m *mockRepoDB) UpdateUserPassword(ctx context.Context, q db.Querier, userID int64, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

type mockMessaging struct{ mock.Mock }

func (m *mockMessaging) PublishOTPRequested(ctx context.Context, msg OTPRequestedEvent) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessaging) PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessaging) PublishUserPasswordReset(ctx context.Context, msg UserPasswordResetEvent) error {
	return m.Called(ctx, msg).Error(0)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Issue(ctx context.Context, in vusecase.IssueInput) (*vusecase.IssueOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*vusecase.IssueOutput)
	return out, args.Error(1)
}

func (m *mockVerifier) Verify(ctx context.Context, in vusecase.VerifyInput) (*vusecase.VerifyOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*vusecase.VerifyOutput)
	return out, args.Error(1)
}

func (m *mockVerifier) Remove(ctx context.Context, contact string, purpose ventity.Purpose) error {
	return m.Called(ctx, contact, purpose).Error(0)
}

func (m *mockVerifier) ClearRateLimit(ctx context.Context, contact string) error {
	return m.Called(ctx, contact).Error(0)
}

type mockRoles struct{ mock.Mock }

func (m *mockRoles) AssignRoleTx(ctx context.Context, tx pgx.Tx, subject, role string) error {
	return m.Called(ctx, subject, role).Error(0)
}

// plainHash keeps tests fast and assertions readable.
type plainHash struct{}

func (plainHash) Hash(str string) ([]byte, error) { return []byte("hashed:" + str), nil }
func (plainHash) Verify(hashed, str string) bool  { return hashed == "hashed:"+str }

type fixedNumber int64

func (f fixedNumber) Generate() int64 { return int64(f) }

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fixture struct {
	uc     *Usecase
	db     *mockRepoDB
	mq     *mockMessaging
	ver    *mockVerifier
	roles  *mockRoles
	box    secretbox.Box
	hmac   hash.Hash
	now    time.Time
	expiry time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	box, err := secretbox.NewStatic(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &fixture{
		db:     &mockRepoDB{},
		mq:     &mockMessaging{},
		ver:    &mockVerifier{},
		roles:  &mockRoles{},
		box:    box,
		hmac:   hash.NewHMACSHA256("test-secret"),
		now:    now,
		expiry: now.Add(5 * time.Minute),
	}
	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Roles:         f.roles,
		Verifier:      f.ver,
		Box:           box,
		Validator:     v,
		Config:        cfg,
		Password:      plainHash{},
		HMAC:          f.hmac,
		UID:           fixedNumber(42),
		UUID:          fixedID("evt-1"),
		OID:           fixedID("reset-token"),
		Clock:         clock.NewFixed(now),
		Instrument:    instrument.NewNoop(),
	})

	t.Cleanup(func() {
		f.db.AssertExpectations(t)
		f.mq.AssertExpectations(t)
		f.ver.AssertExpectations(t)
		f.roles.AssertExpectations(t)
	})
	return f
}

func (f *fixture) seal(t *testing.T, contact string, purpose ventity.Purpose, pw string) string {
	t.Helper()
	enc, err := f.box.Encrypt(scope(contact, purpose), pw)
	require.NoError(t, err)
	return enc
}

func detailsOf(t *testing.T, err error) []string {
	t.Helper()
	ge, ok := goerror.As(err)
	require.True(t, ok, "error %v is not a goerror", err)
	return ge.Details()
}

func TestUsecase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("sms channel needs a phone", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Register(ctx, RegisterInput{Channel: "sms", Email: "ann@gostore.io", FullName: "Ann Lee", Password: "longenough"})
		assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
	})

	t.Run("email already registered", func(t *testing.T) {
		f := newFixture(t)
		f.ver.On("Issue", mock.Anything, mock.Anything).
			Return(&vusecase.IssueOutput{Code: "123456", ExpiresAt: f.expiry}, nil).Once()
		f.db.On("GetUserByEmail", mock.Anything, "ann@gostore.io").Return(&entity.User{ID: 1}, nil).Once()
		f.ver.On("Remove", mock.Anything, "ann@gostore.io", ventity.PurposeRegistration).Return(nil).Once()

		_, err := f.uc.Register(ctx, RegisterInput{Channel: "email", Email: " Ann@GoStore.io ", FullName: "Ann Lee", Password: "longenough"})
		assert.Equal(t, goerror.CodeConflict, goerror.CodeOf(err))
		f.mq.AssertNotCalled(t, "PublishOTPRequested", mock.Anything, mock.Anything)
	})

	t.Run("rate limit applies before the account lookup", func(t *testing.T) {
		f := newFixture(t)
		limited := goerror.NewBusiness("too many requests, try again later", goerror.CodeTooManyRequest)
		f.ver.On("Issue", mock.Anything, mock.Anything).Return(nil, limited).Once()

		_, err := f.uc.Register(ctx, RegisterInput{Channel: "email", Email: "ann@gostore.io", FullName: "Ann Lee", Password: "longenough"})
		assert.Equal(t, goerror.CodeTooManyRequest, goerror.CodeOf(err))
		f.db.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("issues a sealed registration and delivers the code", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByPhone", mock.Anything, "+6281234567890").Return(nil, goerror.ErrNotFound).Once()

		var issued vusecase.IssueInput
		f.ver.On("Issue", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { issued = args.Get(1).(vusecase.IssueInput) }).
			Return(&vusecase.IssueOutput{Code: "123456", ExpiresAt: f.expiry}, nil).Once()
		f.mq.On("PublishOTPRequested", mock.Anything, OTPRequestedEvent{
			EventID:   "evt-1",
			Contact:   "+6281234567890",
			Channel:   "sms",
			Purpose:   "registration",
			Code:      "123456",
			FullName:  "Ann Lee",
			ExpiresAt: f.expiry,
		}).Return(nil).Once()

		out, err := f.uc.Register(ctx, RegisterInput{Channel: "sms", Phone: "+6281234567890", FullName: " Ann Lee ", Password: "longenough"})
		require.NoError(t, err)
		assert.Equal(t, f.expiry, out.ExpiresAt)

		assert.Equal(t, "+6281234567890", issued.Contact)
		assert.Equal(t, ventity.ChannelSMS, issued.Channel)
		p, ok := issued.Payload.(ventity.RegistrationPayload)
		require.True(t, ok)
		assert.Equal(t, "Ann Lee", p.FullName)
		assert.NotContains(t, p.EncryptedPassword, "longenough")

		pw, err := f.box.Decrypt(scope("+6281234567890", ventity.PurposeRegistration), p.EncryptedPassword)
		require.NoError(t, err)
		assert.Equal(t, "longenough", pw)
	})
}

func TestUsecase_RegisterVerify(t *testing.T) {
	ctx := context.Background()

	verified := func(f *fixture) {
		f.ver.On("Verify", mock.Anything, vusecase.VerifyInput{
			Contact: "ann@gostore.io",
			Code:    "123456",
			Purpose: ventity.PurposeRegistration,
			Channel: ventity.ChannelEmail,
		}).Return(&vusecase.VerifyOutput{Payload: ventity.RegistrationPayload{
			Email:             "ann@gostore.io",
			FullName:          "Ann Lee",
			EncryptedPassword: f.seal(t, "ann@gostore.io", ventity.PurposeRegistration, "longenough"),
		}}, nil).Once()
	}

	t.Run("wrong code is passed through", func(t *testing.T) {
		f := newFixture(t)
		invalid := goerror.NewBusiness("invalid verification code", goerror.CodeInvalidInput)
		f.ver.On("Verify", mock.Anything, mock.Anything).Return(nil, invalid).Once()

		_, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{Channel: "email", Contact: "ann@gostore.io", Code: "000000"})
		assert.Equal(t, invalid, err)
	})

	t.Run("creates user role and profile then publishes", func(t *testing.T) {
		f := newFixture(t)
		verified(f)
		f.db.On("DoInTx", pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, 3*time.Second).Return(nil).Once()
		f.db.On("CreateUser", inTx, entity.NewUser{
			ID: 42, Email: "ann@gostore.io", Password: "hashed:longenough", Status: entity.UserStatusActive,
		}).Return(nil).Once()
		f.roles.On("AssignRoleTx", inTx, "42", "customer").Return(nil).Once()
		f.db.On("CreateProfile", inTx, entity.Profile{UserID: 42, FullName: "Ann Lee"}).Return(nil).Once()
		f.mq.On("PublishUserRegistered", mock.Anything, UserRegisteredEvent{
			EventID:    "evt-1",
			UserID:     42,
			Email:      "ann@gostore.io",
			FullName:   "Ann Lee",
			Contact:    "ann@gostore.io",
			Channel:    "email",
			OccurredAt: f.now,
		}).Return(nil).Once()

		out, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{Channel: "email", Contact: "ANN@gostore.io", Code: "123456"})
		require.NoError(t, err)
		assert.Equal(t, int64(42), out.UserID)
	})

	t.Run("role failure rolls back and keeps the code", func(t *testing.T) {
		f := newFixture(t)
		verified(f)
		f.db.On("DoInTx", mock.Anything, mock.Anything).Return(nil).Once()
		f.db.On("CreateUser", mock.Anything, mock.Anything).Return(nil).Once()
		f.roles.On("AssignRoleTx", mock.Anything, "42", "customer").Return(rbac.ErrRoleWithoutPermissions).Once()

		_, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{Channel: "email", Contact: "ann@gostore.io", Code: "123456"})
		assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
		assert.Equal(t, []string{"role customer cannot be assigned"}, detailsOf(t, err))
	})

	t.Run("duplicate account", func(t *testing.T) {
		f := newFixture(t)
		verified(f)
		f.db.On("DoInTx", mock.Anything, mock.Anything).Return(nil).Once()
		f.db.On("CreateUser", mock.Anything, mock.Anything).Return(goerror.ErrConflict).Once()

		_, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{Channel: "email", Contact: "ann@gostore.io", Code: "123456"})
		assert.Equal(t, []string{"account is already registered"}, detailsOf(t, err))
	})

	t.Run("database failure is internal", func(t *testing.T) {
		f := newFixture(t)
		verified(f)
		f.db.On("DoInTx", mock.Anything, mock.Anything).Return(errors.New("conn reset")).Once()

		_, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{Channel: "email", Contact: "ann@gostore.io", Code: "123456"})
		assert.Equal(t, goerror.CodeInternal, goerror.CodeOf(err))
	})

	t.Run("payload sealed for another contact", func(t *testing.T) {
		f := newFixture(t)
		f.ver.On("Verify", mock.Anything, mock.Anything).Return(&vusecase.VerifyOutput{Payload: ventity.RegistrationPayload{
			Email:             "ann@gostore.io",
			EncryptedPassword: f.seal(t, "eve@gostore.io", ventity.PurposeRegistration, "longenough"),
		}}, nil).Once()

		_, err := f.uc.RegisterVerify(ctx, RegisterVerifyInput{Channel: "email", Contact: "ann@gostore.io", Code: "123456"})
		assert.ErrorIs(t, err, secretbox.ErrDecryptFailed)
	})
}

func TestUsecase_PasswordForgot(t *testing.T) {
	ctx := context.Background()
	in := PasswordForgotInput{Channel: "email", Contact: "Bob@GoStore.io", NewPassword: "brandnewpw"}

	t.Run("unknown contact gets a record but no delivery", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByEmail", mock.Anything, "bob@gostore.io").Return(nil, goerror.ErrNotFound).Once()
		f.ver.On("Issue", mock.Anything, mock.MatchedBy(func(in vusecase.IssueInput) bool {
			p, ok := in.Payload.(ventity.PasswordResetPayload)
			return ok && in.Purpose == ventity.PurposePasswordReset && p.ResetToken == "reset-token"
		})).Return(&vusecase.IssueOutput{Code: "123456", ExpiresAt: f.expiry}, nil).Once()

		out, err := f.uc.PasswordForgot(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, f.expiry, out.ExpiresAt)
	})

	t.Run("known contact stores the token hash and delivers", func(t *testing.T) {
		f := newFixture(t)
		tokenHash, _ := f.hmac.Hash("reset-token")
		f.db.On("GetUserByEmail", mock.Anything, "bob@gostore.io").
			Return(&entity.User{ID: 10, Email: "bob@gostore.io", Status: entity.UserStatusActive}, nil).Once()
		f.ver.On("Issue", mock.Anything, mock.Anything).Return(&vusecase.IssueOutput{Code: "123456", ExpiresAt: f.expiry}, nil).Once()
		f.db.On("CreatePasswordReset", mock.Anything, entity.PasswordReset{
			ID: 42, UserID: 10, TokenHash: string(tokenHash), ExpiresAt: f.now.Add(20 * time.Minute),
		}).Return(nil).Once()
		f.mq.On("PublishOTPRequested", mock.Anything, mock.MatchedBy(func(e OTPRequestedEvent) bool {
			return e.Code == "123456" && e.Purpose == "password_reset" && e.Contact == "bob@gostore.io"
		})).Return(nil).Once()

		out, err := f.uc.PasswordForgot(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, f.expiry, out.ExpiresAt)
	})

	t.Run("banned user is treated as unknown", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByEmail", mock.Anything, "bob@gostore.io").
			Return(&entity.User{ID: 10, Status: entity.UserStatusBanned}, nil).Once()
		f.ver.On("Issue", mock.Anything, mock.Anything).Return(&vusecase.IssueOutput{Code: "123456", ExpiresAt: f.expiry}, nil).Once()

		_, err := f.uc.PasswordForgot(ctx, in)
		require.NoError(t, err)
	})

	t.Run("weak password", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.PasswordForgot(ctx, PasswordForgotInput{Channel: "email", Contact: "bob@gostore.io", NewPassword: "short"})
		assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
	})
}

func TestUsecase_PasswordReset(t *testing.T) {
	ctx := context.Background()
	in := PasswordResetInput{Channel: "sms", Contact: "+6281234567890", Code: "123456"}

	verified := func(f *fixture) {
		f.ver.On("Verify", mock.Anything, mock.Anything).Return(&vusecase.VerifyOutput{Payload: ventity.PasswordResetPayload{
			EncryptedPassword: f.seal(t, "+6281234567890", ventity.PurposePasswordReset, "brandnewpw"),
			ResetToken:        "reset-token",
		}}, nil).Once()
	}

	t.Run("unknown contact", func(t *testing.T) {
		f := newFixture(t)
		verified(f)
		f.db.On("GetUserByPhone", mock.Anything, "+6281234567890").Return(nil, goerror.ErrNotFound).Once()

		err := f.uc.PasswordReset(ctx, in)
		assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(err))
	})

	t.Run("spent token", func(t *testing.T) {
		f := newFixture(t)
		verified(f)
		f.db.On("GetUserByPhone", mock.Anything, "+6281234567890").
			Return(&entity.User{ID: 10, Phone: "+6281234567890", Status: entity.UserStatusActive}, nil).Once()
		f.db.On("DoInTx", mock.Anything, mock.Anything).Return(nil).Once()
		f.db.On("UsePasswordReset", mock.Anything, int64(10), mock.Anything, f.now).Return(goerror.ErrNotFound).Once()

		err := f.uc.PasswordReset(ctx, in)
		assert.Equal(t, []string{"reset token is invalid, expired or already used"}, detailsOf(t, err))
	})

	t.Run("replaces the password and clears throttling", func(t *testing.T) {
		f := newFixture(t)
		verified(f)
		tokenHash, _ := f.hmac.Hash("reset-token")
		f.db.On("GetUserByPhone", mock.Anything, "+6281234567890").
			Return(&entity.User{ID: 10, Phone: "+6281234567890", Status: entity.UserStatusActive}, nil).Once()
		f.db.On("DoInTx", pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, 3*time.Second).Return(nil).Once()
		f.db.On("UsePasswordReset", inTx, int64(10), string(tokenHash), f.now).Return(nil).Once()
		f.db.On("UpdateUserPassword", inTx, int64(10), "hashed:brandnewpw").Return(nil).Once()
		f.ver.On("Remove", mock.Anything, "+6281234567890", ventity.PurposePasswordReset).Return(nil).Once()
		f.ver.On("ClearRateLimit", mock.Anything, "+6281234567890").Return(nil).Once()
		f.mq.On("PublishUserPasswordReset", mock.Anything, UserPasswordResetEvent{
			EventID: "evt-1", UserID: 10, Phone: "+6281234567890", Channel: "sms", OccurredAt: f.now,
		}).Return(nil).Once()

		require.NoError(t, f.uc.PasswordReset(ctx, in))
	})
}
