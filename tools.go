//go:build tools

package tools

// Mocks in pkg/livechat/mocks are generated by mockery v2 from
// .mockery.yaml. mockery is an installed binary, so there is nothing to
// import here. Run: mockery
