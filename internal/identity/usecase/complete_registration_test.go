package usecase

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gostore/internal/identity/outbound/db"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/pgtest"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/secretbox"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCompleteRegistration_AllOrNothing(t *testing.T) {
	pool := pgtest.New(t)
	ctx := context.Background()

	box, err := secretbox.NewStatic(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	build := func(role string, id int64) (*Usecase, *mockVerifier, *mockMessaging) {
		cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  identity:\n    default_role: "+role+"\n"))
		require.NoError(t, err)
		ver, mq := &mockVerifier{}, &mockMessaging{}
		return New(Dependency{
			RepoDB:        db.NewDB(pool, instrument.NewNoop()),
			RepoMessaging: mq,
			Roles:         rbac.NewAdapter(pool),
			Verifier:      ver,
			Box:           box,
			Validator:     v,
			Config:        cfg,
			Password:      plainHash{},
			UID:           fixedNumber(id),
			UUID:          fixedID("evt"),
			Clock:         clock.NewFixed(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
			Instrument:    instrument.NewNoop(),
		}), ver, mq
	}

	enc, err := box.Encrypt(scope("ann@gostore.io", ventity.PurposeRegistration), "longenough")
	require.NoError(t, err)
	payload := ventity.RegistrationPayload{Email: "ann@gostore.io", FullName: "Ann Lee", EncryptedPassword: enc}

	countUsers := func() int {
		var n int
		require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM identity_users WHERE email = $1", "ann@gostore.io").Scan(&n))
		return n
	}

	t.Run("role without permissions leaves no user", func(t *testing.T) {
		uc, ver, mq := build("ghost", 500)

		_, err := uc.CompleteRegistration(ctx, "ann@gostore.io", ventity.ChannelEmail, payload)
		assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
		assert.Equal(t, 0, countUsers())

		ver.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
		mq.AssertNotCalled(t, "PublishUserRegistered", mock.Anything, mock.Anything)
	})

	t.Run("default role commits user role and profile", func(t *testing.T) {
		uc, ver, mq := build("customer", 501)
		mq.On("PublishUserRegistered", mock.Anything, mock.MatchedBy(func(e UserRegisteredEvent) bool {
			return e.UserID == 501 && e.Contact == "ann@gostore.io"
		})).Return(nil).Once()

		out, err := uc.CompleteRegistration(ctx, "ann@gostore.io", ventity.ChannelEmail, payload)
		require.NoError(t, err)
		assert.Equal(t, int64(501), out.UserID)
		assert.Equal(t, 1, countUsers())

		var fullName string
		require.NoError(t, pool.QueryRow(ctx, "SELECT full_name FROM identity_profiles WHERE user_id = 501").Scan(&fullName))
		assert.Equal(t, "Ann Lee", fullName)

		var role string
		require.NoError(t, pool.QueryRow(ctx,
			"SELECT v1 FROM identity_casbin_rules WHERE ptype = 'g' AND v0 = '501'").Scan(&role))
		assert.Equal(t, "customer", role)

		ver.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
		mq.AssertExpectations(t)
	})
}
