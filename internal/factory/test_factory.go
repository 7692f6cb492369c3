package factory

import (
	"net/http/httptest"
	"time"

	"github.com/mcoot/dojo-starter/internal/actions"
	"github.com/mcoot/dojo-starter/internal/chain"
	"github.com/mcoot/dojo-starter/internal/dependencies/mocks"
	"github.com/mcoot/dojo-starter/internal/dependencies/random"
	"github.com/mcoot/dojo-starter/internal/devnet"
	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/storage/memory"
	"github.com/mcoot/dojo-starter/internal/testutil"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// TestNamespace is the world namespace used by test apps
const TestNamespace = "dojo_starter"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockChain *mocks.MockChain

	// Devnet is set by NewDevnetTestApp
	Devnet *httptest.Server
}

// NewTestApp creates an App configured for testing with a scripted backend
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockChain := mocks.NewMockChain()

	app := newWithDependencies(memory.New(), mockChain, mockClock, "", initflow.DefaultConfig(), actions.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockChain: mockChain,
	}
}

// NewDevnetTestApp creates an App talking HTTP to an in-process devnet.
// Callers must Close the returned app.
func NewDevnetTestApp(flow initflow.Config) *TestApp {
	logger := testutil.NopLogger()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	world := devnet.NewWorld(memory.New(), mockClock, random.New(), TestNamespace, logger)
	server := httptest.NewServer(devnet.NewRouter(devnet.RouterConfig{Logger: logger, World: world}))
	client := chain.New(server.URL, TestNamespace, 5*time.Second)

	app := newWithDependencies(memory.New(), client, mockClock, "", flow, actions.Config{
		PollInterval: 10 * time.Millisecond,
		PollTimeout:  time.Second,
	}, logger)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Devnet:    server,
	}
}

// ConnectBurner connects a freshly generated burner account
func (t *TestApp) ConnectBurner() (*wallet.BurnerAccount, error) {
	account, err := wallet.NewBurnerAccount()
	if err != nil {
		return nil, err
	}
	t.Wallet.Connect(account)
	return account, nil
}

// Close stops the devnet if one was started and releases storage
func (t *TestApp) Close() error {
	if t.Devnet != nil {
		t.Devnet.Close()
	}
	return t.App.Close()
}
