package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"verimint/internal/chain"
	"verimint/internal/wallet/models"
	"verimint/internal/wallet/ports"
	"verimint/internal/wallet/store/authorization"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/audit"
	"verimint/pkg/requestcontext"
)

type fakeConnector struct {
	mu          sync.Mutex
	address     string
	connectErr  error
	reconnErr   error
	signErr     error
	connects    int
	disconnects int
	signed      []string
}

func (f *fakeConnector) Connect(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return "", f.connectErr
	}
	return f.address, nil
}

func (f *fakeConnector) Reconnect(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reconnErr != nil {
		return f.reconnErr
	}
	if address != f.address {
		return errors.New("unknown address")
	}
	return nil
}

func (f *fakeConnector) Disconnect(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeConnector) SignTransaction(_ context.Context, _ string, txn chain.UnsignedTxn) (chain.SignedTxn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signErr != nil {
		return chain.SignedTxn{}, f.signErr
	}
	f.signed = append(f.signed, txn.TxID)
	return chain.SignedTxn{TxID: txn.TxID, Bytes: []byte("signed")}, nil
}

type WalletSuite struct {
	suite.Suite
	connector *fakeConnector
	cache     *authorization.InMemoryStore
	service   *Service
}

func TestWalletSuite(t *testing.T) {
	suite.Run(t, new(WalletSuite))
}

func (s *WalletSuite) SetupTest() {
	s.connector = &fakeConnector{address: "WALLETADDR"}
	s.cache = authorization.NewInMemory()
	s.service = s.newService()
}

func (s *WalletSuite) TearDownTest() {
	s.service.Close()
}

func (s *WalletSuite) newService() *Service {
	svc, err := New(s.connector,
		WithAuthorizationCache(s.cache),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	return svc
}

func (s *WalletSuite) TestConnect() {
	ctx := context.Background()

	s.Run("stores the address and caches the authorization", func() {
		conn, err := s.service.Connect(ctx)
		s.Require().NoError(err)
		s.Equal(models.Connection{Address: "WALLETADDR", Connected: true}, conn)
		s.Equal(conn, s.service.Connection())

		auth, err := s.cache.Load(ctx)
		s.Require().NoError(err)
		s.Equal("WALLETADDR", auth.Address)
	})

	s.Run("connecting again does not prompt", func() {
		_, err := s.service.Connect(ctx)
		s.Require().NoError(err)
		s.Equal(1, s.connector.connects)
	})
}

func (s *WalletSuite) TestConnectCancelledIsSilent() {
	s.connector.connectErr = ports.ErrUserCancelled

	conn, err := s.service.Connect(context.Background())

	s.NoError(err)
	s.False(conn.Connected)
	s.False(s.service.Connection().Usable())
}

func (s *WalletSuite) TestConnectFailure() {
	s.connector.connectErr = errors.New("bridge unreachable")

	_, err := s.service.Connect(context.Background())

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConnectionFailed))
	s.False(s.service.Connection().Usable())
}

func (s *WalletSuite) TestReconnectExisting() {
	ctx := context.Background()

	s.Run("nothing cached leaves the session disconnected", func() {
		conn, err := s.service.ReconnectExisting(ctx)
		s.Require().NoError(err)
		s.False(conn.Connected)
	})

	s.Run("restores the cached address on a new process", func() {
		_, err := s.service.Connect(ctx)
		s.Require().NoError(err)
		s.service.Close()

		s.service = s.newService()
		s.False(s.service.Connection().Connected)

		conn, err := s.service.ReconnectExisting(ctx)
		s.Require().NoError(err)
		s.Equal("WALLETADDR", conn.Address)
		s.Equal(1, s.connector.connects)
	})

	s.Run("stale authorization is dropped", func() {
		s.service.Close()
		s.Require().NoError(s.cache.Save(ctx, models.Authorization{Address: "OLDADDR"}))
		s.service = s.newService()

		conn, err := s.service.ReconnectExisting(ctx)
		s.Require().NoError(err)
		s.False(conn.Connected)
		_, err = s.cache.Load(ctx)
		s.Error(err)
	})
}

func (s *WalletSuite) TestDisconnectIsIdempotent() {
	ctx := context.Background()
	_, err := s.service.Connect(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Disconnect(ctx))
	s.Require().NoError(s.service.Disconnect(ctx))

	s.Equal(models.Disconnected, s.service.Connection())
	s.Equal(1, s.connector.disconnects)
	_, err = s.cache.Load(ctx)
	s.Error(err)
}

func (s *WalletSuite) TestSign() {
	ctx := context.Background()
	txn := chain.UnsignedTxn{TxID: "TX1", Sender: "WALLETADDR", Bytes: []byte("txn")}

	s.Run("requires a connection", func() {
		_, err := s.service.Sign(ctx, txn)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeWalletNotConnected))
	})

	_, err := s.service.Connect(ctx)
	s.Require().NoError(err)

	s.Run("delegates to the wallet", func() {
		signed, err := s.service.Sign(ctx, txn)
		s.Require().NoError(err)
		s.Equal("TX1", signed.TxID)
	})

	s.Run("rejects a transaction for another sender", func() {
		_, err := s.service.Sign(ctx, chain.UnsignedTxn{TxID: "TX2", Sender: "OTHER"})
		s.True(dErrors.HasCode(err, dErrors.CodeSigningFailed))
	})

	s.Run("declined signature", func() {
		s.connector.mu.Lock()
		s.connector.signErr = ports.ErrDeclined
		s.connector.mu.Unlock()

		_, err := s.service.Sign(ctx, txn)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSigningFailed))
	})
}

func (s *WalletSuite) TestConcurrentReadersSeeConsistentSnapshots() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				conn := s.service.Connection()
				if conn.Connected {
					s.NotEmpty(conn.Address)
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_, err := s.service.Connect(ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Disconnect(ctx))
	}
	wg.Wait()
}

func (s *WalletSuite) TestClosedServiceRejectsCommands() {
	s.service.Close()
	_, err := s.service.Connect(context.Background())
	s.ErrorIs(err, ErrClosed)
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAuditor) Emit(_ context.Context, event audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (s *WalletSuite) TestAuditRecordsConnectingDevice() {
	auditor := &recordingAuditor{}
	svc, err := New(s.connector,
		WithAuditPublisher(auditor),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	defer svc.Close()

	ctx := requestcontext.WithUserAgent(context.Background(),
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	_, err = svc.Connect(ctx)
	s.Require().NoError(err)
	s.Require().NoError(svc.Disconnect(context.Background()))

	s.Require().Len(auditor.events, 2)
	s.Equal(string(audit.EventWalletConnected), auditor.events[0].Action)
	s.Equal("WALLETADDR", auditor.events[0].Subject)
	s.Contains(auditor.events[0].Device, "iPhone")
	s.Equal(string(audit.EventWalletDisconnected), auditor.events[1].Action)
	s.Empty(auditor.events[1].Device, "no client outside a request")
}
