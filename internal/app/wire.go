package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AlexZinkM/tkey-wallet/internal/api"
	"github.com/AlexZinkM/tkey-wallet/internal/chain"
	"github.com/AlexZinkM/tkey-wallet/internal/client"
	"github.com/AlexZinkM/tkey-wallet/internal/config"
	"github.com/AlexZinkM/tkey-wallet/internal/console"
	"github.com/AlexZinkM/tkey-wallet/internal/crypto"
	"github.com/AlexZinkM/tkey-wallet/internal/handler"
	"github.com/AlexZinkM/tkey-wallet/internal/session"
	"github.com/AlexZinkM/tkey-wallet/internal/tkey"

	"go.uber.org/zap"
)

// App bundles the controller and router built from config
type App struct {
	Controller *session.Controller
	Router     http.Handler
	Console    *console.Console

	logger  *zap.Logger
	closers []func(ctx context.Context)
}

// New constructs the dependency graph from cfg. password supplies the device
// share passphrase; a nil password disables device storage.
func New(ctx context.Context, cfg *config.Config, password tkey.PasswordFunc, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	storage, err := a.newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sp, err := tkey.NewServiceProvider([]byte(cfg.PostboxNodeSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create service provider: %w", err)
	}

	opts := []tkey.Option{tkey.WithLogger(logger.Named("tkey"))}
	var deviceModule *tkey.DeviceStorageModule
	if password != nil {
		deviceModule = tkey.NewDeviceStorageModule(cfg.DeviceShareDir, password, crypto.DefaultKDFParams(), logger.Named("device"))
		opts = append(opts, tkey.WithDeviceStorage(deviceModule))
	}
	keyClient := tkey.New(sp, storage, opts...)

	keyProvider := a.newKeyProvider(cfg)

	a.Console = console.New(logger.Named("console"))

	deps := session.Dependencies{
		Identity:    client.NewFirebaseClient(cfg.FirebaseBaseURL, cfg.FirebaseAPIKey),
		KeyClient:   keyClient,
		Serializer:  keyClient.ShareSerialization(),
		Storage:     storage,
		KeyProvider: keyProvider,
		Console:     a.Console,
		Logger:      logger.Named("session"),
		Verifier:    cfg.Verifier,
	}
	// a nil *DeviceStorageModule must stay a nil interface
	if deviceModule != nil {
		deps.DeviceStorage = deviceModule
	}

	controller, err := session.New(deps)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to create session controller: %w", err)
	}
	a.Controller = controller

	a.Router = api.SetupRouter(api.Handlers{
		Session: handler.NewSessionHandler(controller),
		Wallet: handler.NewWalletHandler(controller, client.NewCoinGeckoClient(), handler.WalletConfig{
			SignMessage:    cfg.SignMessage,
			SignPassphrase: cfg.SignPassphrase,
			PriceCurrency:  cfg.PriceCurrency,
		}, a.Console, logger.Named("wallet")),
		Console: handler.NewConsoleHandler(a.Console),
	})
	return a, nil
}

func (a *App) newStorage(ctx context.Context, cfg *config.Config) (tkey.StorageLayer, error) {
	switch cfg.MetadataBackend {
	case config.MetadataBackendMongo:
		ms, err := tkey.NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect metadata storage: %w", err)
		}
		a.closers = append(a.closers, func(ctx context.Context) {
			if err := ms.Close(ctx); err != nil {
				a.logger.Warn("failed to close metadata storage", zap.Error(err))
			}
		})
		a.logger.Info("metadata storage", zap.String("backend", "mongo"), zap.String("database", cfg.MongoDatabase))
		return ms, nil
	default:
		a.logger.Info("metadata storage", zap.String("backend", "file"), zap.String("dir", cfg.MetadataDir))
		return tkey.NewFileStorage(cfg.MetadataDir), nil
	}
}

func (a *App) newKeyProvider(cfg *config.Config) chain.PrivateKeyProvider {
	if cfg.Chain == config.ChainSolana {
		a.logger.Info("chain provider", zap.String("chain", cfg.Chain), zap.String("rpc", cfg.SolanaRPCURL))
		return client.NewSolanaKeyProvider(cfg.SolanaRPCURL)
	}
	p := client.NewEthereumKeyProvider(cfg.EthRPCURL)
	a.closers = append(a.closers, func(context.Context) { p.Close() })
	a.logger.Info("chain provider", zap.String("chain", cfg.Chain), zap.String("rpc", cfg.EthRPCURL))
	return p
}

// Close releases storage and RPC connections
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}
