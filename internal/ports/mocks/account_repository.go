package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/bilibackup/internal/domain"
)

type MockAccountRepository struct {
	mock.Mock
}

type MockAccountRepository_Expecter struct {
	mock *mock.Mock
}

func (_m *MockAccountRepository) EXPECT() *MockAccountRepository_Expecter {
	return &MockAccountRepository_Expecter{mock: &_m.Mock}
}

func (_m *MockAccountRepository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	ret := _m.Called(ctx, id)
	if len(ret) == 0 {
		panic("no return value specified for GetByID")
	}
	return ret.Get(0).(domain.Account), ret.Error(1)
}

type MockAccountRepository_GetByID_Call struct {
	*mock.Call
}

func (_e *MockAccountRepository_Expecter) GetByID(ctx interface{}, id interface{}) *MockAccountRepository_GetByID_Call {
	return &MockAccountRepository_GetByID_Call{Call: _e.mock.On("GetByID", ctx, id)}
}

func (_c *MockAccountRepository_GetByID_Call) Return(account domain.Account, err error) *MockAccountRepository_GetByID_Call {
	_c.Call.Return(account, err)
	return _c
}

func (_m *MockAccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	ret := _m.Called(ctx)
	if len(ret) == 0 {
		panic("no return value specified for List")
	}
	var accounts []domain.Account
	if v := ret.Get(0); v != nil {
		accounts = v.([]domain.Account)
	}
	return accounts, ret.Error(1)
}

type MockAccountRepository_List_Call struct {
	*mock.Call
}

func (_e *MockAccountRepository_Expecter) List(ctx interface{}) *MockAccountRepository_List_Call {
	return &MockAccountRepository_List_Call{Call: _e.mock.On("List", ctx)}
}

func (_c *MockAccountRepository_List_Call) Return(accounts []domain.Account, err error) *MockAccountRepository_List_Call {
	_c.Call.Return(accounts, err)
	return _c
}

func (_m *MockAccountRepository) Save(ctx context.Context, account domain.Account) error {
	ret := _m.Called(ctx, account)
	if len(ret) == 0 {
		panic("no return value specified for Save")
	}
	return ret.Error(0)
}

type MockAccountRepository_Save_Call struct {
	*mock.Call
}

func (_e *MockAccountRepository_Expecter) Save(ctx interface{}, account interface{}) *MockAccountRepository_Save_Call {
	return &MockAccountRepository_Save_Call{Call: _e.mock.On("Save", ctx, account)}
}

func (_c *MockAccountRepository_Save_Call) Return(err error) *MockAccountRepository_Save_Call {
	_c.Call.Return(err)
	return _c
}

func (_m *MockAccountRepository) Delete(ctx context.Context, id domain.AccountID) error {
	ret := _m.Called(ctx, id)
	if len(ret) == 0 {
		panic("no return value specified for Delete")
	}
	return ret.Error(0)
}

type MockAccountRepository_Delete_Call struct {
	*mock.Call
}

func (_e *MockAccountRepository_Expecter) Delete(ctx interface{}, id interface{}) *MockAccountRepository_Delete_Call {
	return &MockAccountRepository_Delete_Call{Call: _e.mock.On("Delete", ctx, id)}
}

func (_c *MockAccountRepository_Delete_Call) Return(err error) *MockAccountRepository_Delete_Call {
	_c.Call.Return(err)
	return _c
}

func (_m *MockAccountRepository) Active(ctx context.Context) (domain.Account, error) {
	ret := _m.Called(ctx)
	if len(ret) == 0 {
		panic("no return value specified for Active")
	}
	return ret.Get(0).(domain.Account), ret.Error(1)
}

type MockAccountRepository_Active_Call struct {
	*mock.Call
}

func (_e *MockAccountRepository_Expecter) Active(ctx interface{}) *MockAccountRepository_Active_Call {
	return &MockAccountRepository_Active_Call{Call: _e.mock.On("Active", ctx)}
}

func (_c *MockAccountRepository_Active_Call) Return(account domain.Account, err error) *MockAccountRepository_Active_Call {
	_c.Call.Return(account, err)
	return _c
}

func (_m *MockAccountRepository) SetActive(ctx context.Context, id domain.AccountID) error {
	ret := _m.Called(ctx, id)
	if len(ret) == 0 {
		panic("no return value specified for SetActive")
	}
	return ret.Error(0)
}

type MockAccountRepository_SetActive_Call struct {
	*mock.Call
}

func (_e *MockAccountRepository_Expecter) SetActive(ctx interface{}, id interface{}) *MockAccountRepository_SetActive_Call {
	return &MockAccountRepository_SetActive_Call{Call: _e.mock.On("SetActive", ctx, id)}
}

func (_c *MockAccountRepository_SetActive_Call) Return(err error) *MockAccountRepository_SetActive_Call {
	_c.Call.Return(err)
	return _c
}

func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
