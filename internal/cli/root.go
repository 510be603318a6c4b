package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thriftstore/internal/client/account"
	"thriftstore/internal/client/api"
	"thriftstore/internal/client/chat"
	"thriftstore/internal/client/location"
	"thriftstore/internal/client/session"
	"thriftstore/internal/client/tracker"
	"thriftstore/internal/common"
	"thriftstore/internal/config"
	"thriftstore/internal/logger"
)

const envPrefix = "THRIFT"

// Flag and viper keys.
const (
	apiURLFlag        = "api-url"
	sessionFlag       = "session"
	redisFlag         = "session-redis"
	geocoderFlag      = "geocoder-url"
	geocodeEveryFlag  = "geocode-interval"
	ackTimeoutFlag    = "ack-timeout"
	logLevelFlag      = "log-level"
	latFlag           = "lat"
	lonFlag           = "lon"
	trackIntervalFlag = "interval"
)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg config.ClientConfig
	v   *viper.Viper
	out io.Writer

	store    session.Store
	api      *api.Client
	accounts *account.Service
	closers  []func() error
}

// NewRootCmd builds thriftctl. Defaults come from the THRIFT_* / .env
// configuration and can be overridden by flags.
func NewRootCmd(cfg config.ClientConfig) *cobra.Command {
	root, _ := newRoot(cfg)
	return root
}

func newRoot(cfg config.ClientConfig) (*cobra.Command, *app) {
	if cfg.TrackInterval <= 0 {
		cfg.TrackInterval = tracker.DefaultInterval
	}
	a := &app{cfg: cfg, v: viper.New()}

	root := &cobra.Command{
		Use:           "thriftctl",
		Short:         "Command line client for the thriftstore marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String(apiURLFlag, cfg.APIURL, "Base URL of the thriftstore API")
	flags.String(sessionFlag, cfg.SessionPath, "Path of the session file")
	flags.String(redisFlag, cfg.SessionRedis, "Keep the session in Redis at this address instead of a file")
	flags.String(geocoderFlag, cfg.GeocoderURL, "Nominatim compatible geocoder URL")
	flags.Duration(geocodeEveryFlag, cfg.GeocodeInterval, "Minimum delay between geocoding requests")
	flags.Duration(ackTimeoutFlag, cfg.AckTimeout, "How long to wait for the server to acknowledge a chat message")
	flags.StringP(logLevelFlag, "v", "warn", "Log level (debug, info, warn, error)")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	a.v.BindPFlags(flags)

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newSignupCmd(a),
		newSetLocationCmd(a),
		newWhoamiCmd(a),
		newListingsCmd(a),
		newChatsCmd(a),
		newChatCmd(a),
		newNearbyCmd(a),
		newTrackCmd(a),
	)
	return root, a
}

// Execute runs thriftctl and turns an expired session into a login hint.
func Execute(ctx context.Context, cfg config.ClientConfig, args []string, out, errOut io.Writer) int {
	root, a := newRoot(cfg)
	return execute(ctx, root, a, args, out, errOut)
}

// execute releases whatever init opened even when the command fails, since
// cobra skips post-run hooks after an error.
func execute(ctx context.Context, root *cobra.Command, a *app, args []string, out, errOut io.Writer) int {
	defer func() {
		if err := a.close(); err != nil {
			logger.Log.WithError(err).Warn("failed to release client resources")
		}
	}()

	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, common.ErrAuthExpired) {
		fmt.Fprintln(errOut, "Your session has expired. Run `thriftctl login` to sign in again.")
		return 2
	}
	fmt.Fprintln(errOut, "Error:", err)
	return 1
}

func (a *app) init() error {
	logger.InitLogger("thriftctl", config.LoggingConfig{
		Level:      a.v.GetString(logLevelFlag),
		Format:     "text",
		OutputPath: "stderr",
	})

	if addr := a.v.GetString(redisFlag); addr != "" {
		client, err := session.NewRedisClient(addr, "", 0)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		a.store = session.NewRedisStore(client, "")
	} else {
		a.store = session.NewFileStore(a.v.GetString(sessionFlag))
	}

	a.api = api.NewClient(a.v.GetString(apiURLFlag), nil, session.TokenSource{Store: a.store})
	a.accounts = account.NewService(a.api, a.store)
	return nil
}

func (a *app) close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// requireSession returns the logged in session.
func (a *app) requireSession(ctx context.Context) (*session.Session, error) {
	return a.accounts.Current(ctx)
}

// checked clears the stored token when err says the session expired.
func (a *app) checked(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return a.accounts.CheckAuth(ctx, err)
}

func (a *app) geocoder() *location.NominatimGeocoder {
	return location.NewNominatimGeocoder(a.v.GetString(geocoderFlag), nil, a.v.GetDuration(geocodeEveryFlag))
}

func (a *app) chatClient(sess *session.Session) *chat.Client {
	dial := func(ctx context.Context) (chat.Channel, error) {
		ch, err := chat.DialWS(ctx, a.api.BaseURL(), sess.Token)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	return chat.NewClient(a.api, dial, sess.UserID, a.v.GetDuration(ackTimeoutFlag))
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
