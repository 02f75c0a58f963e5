package user

import (
	"context"
	"testing"

	"github.com/go-socfony/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) user(args mock.Arguments) (*domain.User, error) {
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	return m.user(m.Called(ctx, userID))
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.user(m.Called(ctx, username))
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.user(m.Called(ctx, email))
}
func (m *mockUserStore) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return m.user(m.Called(ctx, phone))
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) (*domain.User, error) {
	return m.user(m.Called(ctx, userID, updates))
}

type mockVerification struct{ mock.Mock }

func (m *mockVerification) SendPhoneOTP(ctx context.Context, phone string) error {
	return m.Called(ctx, phone).Error(0)
}
func (m *mockVerification) Verify(ctx context.Context, phone, code string) (*domain.VerificationCode, error) {
	args := m.Called(ctx, phone, code)
	if v, _ := args.Get(0).(*domain.VerificationCode); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerification) Consume(ctx context.Context, phone string) {
	m.Called(ctx, phone)
}

func newService(us *mockUserStore, vs *mockVerification) Service {
	return NewService(ServiceDeps{UserRepo: us, Verification: vs})
}

func ptr[T any](v T) *T { return &v }

const (
	oldPhone = "+8613800138000"
	newPhone = "+8613900139000"
)

// --- FindUnique ---

func TestFindUnique_RequiresExactlyOneSelector(t *testing.T) {
	svc := newService(new(mockUserStore), new(mockVerification))

	_, err := svc.FindUnique(context.Background(), domain.UserWhereUnique{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.FindUnique(context.Background(), domain.UserWhereUnique{ID: "u1", Username: "bob"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestFindUnique_BySelector(t *testing.T) {
	us := new(mockUserStore)
	svc := newService(us, new(mockVerification))
	u := &domain.User{UserID: "u1"}

	us.On("GetByUsername", mock.Anything, "bob").Return(u, nil)
	us.On("GetByPhone", mock.Anything, oldPhone).Return(u, nil)
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(u, nil)

	got, err := svc.FindUnique(context.Background(), domain.UserWhereUnique{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = svc.FindUnique(context.Background(), domain.UserWhereUnique{Phone: "+86 138 0013 8000"})
	require.NoError(t, err)

	_, err = svc.FindUnique(context.Background(), domain.UserWhereUnique{Email: "bob@example.com"})
	require.NoError(t, err)
	us.AssertExpectations(t)
}

// --- UpdateUsername ---

func TestUpdateUsername_InvalidFormat(t *testing.T) {
	us := new(mockUserStore)
	svc := newService(us, new(mockVerification))

	_, err := svc.UpdateUsername(context.Background(), "u1", "a!")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUsername_TakenByOther(t *testing.T) {
	us := new(mockUserStore)
	svc := newService(us, new(mockVerification))
	us.On("GetByUsername", mock.Anything, "bob").Return(&domain.User{UserID: "u2"}, nil)

	_, err := svc.UpdateUsername(context.Background(), "u1", "bob")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "The username has been used by other user")
}

func TestUpdateUsername_HappyPath(t *testing.T) {
	us := new(mockUserStore)
	svc := newService(us, new(mockVerification))
	us.On("GetByUsername", mock.Anything, "bob").Return(nil, domain.ErrNotFound)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"username": "bob"}).
		Return(&domain.User{UserID: "u1", Username: ptr("bob")}, nil)

	got, err := svc.UpdateUsername(context.Background(), "u1", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", *got.Username)
}

// --- UpdatePhone ---

func TestUpdatePhone_SameAsOld(t *testing.T) {
	us := new(mockUserStore)
	svc := newService(us, new(mockVerification))
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Phone: ptr(oldPhone)}, nil)

	_, err := svc.UpdatePhone(context.Background(), "u1", domain.UpdatePhoneRequest{Phone: oldPhone, Code: "123456"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "The phone number is the same as the old one")
}

func TestUpdatePhone_InvalidPhone(t *testing.T) {
	svc := newService(new(mockUserStore), new(mockVerification))

	_, err := svc.UpdatePhone(context.Background(), "u1", domain.UpdatePhoneRequest{Phone: "abc", Code: "123456"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdatePhone_UsedByOther(t *testing.T) {
	us := new(mockUserStore)
	svc := newService(us, new(mockVerification))
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	us.On("GetByPhone", mock.Anything, newPhone).Return(&domain.User{UserID: "u2"}, nil)

	_, err := svc.UpdatePhone(context.Background(), "u1", domain.UpdatePhoneRequest{Phone: newPhone, Code: "123456"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdatePhone_OldCodeRequired(t *testing.T) {
	us, vs := new(mockUserStore), new(mockVerification)
	svc := newService(us, vs)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Phone: ptr(oldPhone)}, nil)
	us.On("GetByPhone", mock.Anything, newPhone).Return(nil, domain.ErrNotFound)

	_, err := svc.UpdatePhone(context.Background(), "u1", domain.UpdatePhoneRequest{Phone: newPhone, Code: "123456"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	vs.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePhone_FirstPhone(t *testing.T) {
	us, vs := new(mockUserStore), new(mockVerification)
	svc := newService(us, vs)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	us.On("GetByPhone", mock.Anything, newPhone).Return(nil, domain.ErrNotFound)
	vs.On("Verify", mock.Anything, newPhone, "123456").Return(&domain.VerificationCode{Phone: newPhone}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"phone": newPhone}).
		Return(&domain.User{UserID: "u1", Phone: ptr(newPhone)}, nil)
	vs.On("Consume", mock.Anything, newPhone).Return()

	got, err := svc.UpdatePhone(context.Background(), "u1", domain.UpdatePhoneRequest{Phone: newPhone, Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, newPhone, *got.Phone)
	vs.AssertExpectations(t)
}

func TestUpdatePhone_ReplaceConsumesBothCodes(t *testing.T) {
	us, vs := new(mockUserStore), new(mockVerification)
	svc := newService(us, vs)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Phone: ptr(oldPhone)}, nil)
	us.On("GetByPhone", mock.Anything, newPhone).Return(nil, domain.ErrNotFound)
	vs.On("Verify", mock.Anything, oldPhone, "111111").Return(&domain.VerificationCode{Phone: oldPhone}, nil)
	vs.On("Verify", mock.Anything, newPhone, "222222").Return(&domain.VerificationCode{Phone: newPhone}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"phone": newPhone}).
		Return(&domain.User{UserID: "u1", Phone: ptr(newPhone)}, nil)
	vs.On("Consume", mock.Anything, newPhone).Return()
	vs.On("Consume", mock.Anything, oldPhone).Return()

	_, err := svc.UpdatePhone(context.Background(), "u1", domain.UpdatePhoneRequest{
		Phone:        newPhone,
		Code:         "222222",
		OldPhoneCode: ptr("111111"),
	})
	require.NoError(t, err)
	vs.AssertExpectations(t)
}

func TestUpdatePhone_BadNewCodeLeavesAccountUntouched(t *testing.T) {
	us, vs := new(mockUserStore), new(mockVerification)
	svc := newService(us, vs)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	us.On("GetByPhone", mock.Anything, newPhone).Return(nil, domain.ErrNotFound)
	vs.On("Verify", mock.Anything, newPhone, "000000").Return(nil, domain.ErrUnauthorized)

	_, err := svc.UpdatePhone(context.Background(), "u1", domain.UpdatePhoneRequest{Phone: newPhone, Code: "000000"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	vs.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}
