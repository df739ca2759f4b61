package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/bilibackup/internal/domain"
)

type MockNavigator struct {
	mock.Mock
}

type MockNavigator_Expecter struct {
	mock *mock.Mock
}

func (_m *MockNavigator) EXPECT() *MockNavigator_Expecter {
	return &MockNavigator_Expecter{mock: &_m.Mock}
}

func (_m *MockNavigator) Navigate(ctx context.Context) (domain.Navigation, error) {
	ret := _m.Called(ctx)
	if len(ret) == 0 {
		panic("no return value specified for Navigate")
	}
	if rf, ok := ret.Get(0).(func(context.Context) (domain.Navigation, error)); ok {
		return rf(ctx)
	}
	return ret.Get(0).(domain.Navigation), ret.Error(1)
}

type MockNavigator_Navigate_Call struct {
	*mock.Call
}

func (_e *MockNavigator_Expecter) Navigate(ctx interface{}) *MockNavigator_Navigate_Call {
	return &MockNavigator_Navigate_Call{Call: _e.mock.On("Navigate", ctx)}
}

func (_c *MockNavigator_Navigate_Call) Return(nav domain.Navigation, err error) *MockNavigator_Navigate_Call {
	_c.Call.Return(nav, err)
	return _c
}

func (_c *MockNavigator_Navigate_Call) RunAndReturn(run func(context.Context) (domain.Navigation, error)) *MockNavigator_Navigate_Call {
	_c.Call.Return(run)
	return _c
}

func NewMockNavigator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNavigator {
	m := &MockNavigator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
