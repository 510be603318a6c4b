package cli

import (
	"time"

	"github.com/spf13/cobra"

	"thriftstore/internal/client/location"
	"thriftstore/internal/client/tracker"
)

func newTrackCmd(a *app) *cobra.Command {
	var lat, lon float64
	var interval, poll time.Duration
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Sample your location on an interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := tracker.New(location.NewStaticPlatform(lat, lon), tracker.NewLogSink(), tracker.Options{
				Interval:     interval,
				PollInterval: poll,
			})

			status := t.Start(ctx)
			a.printf("Location tracking %s\n", status)
			if !status.OK() {
				return nil
			}
			defer t.Stop()

			<-ctx.Done()
			a.printf("Stopping location tracking\n")
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, latFlag, 0, "Latitude reported by the tracker")
	cmd.Flags().Float64Var(&lon, lonFlag, 0, "Longitude reported by the tracker")
	cmd.Flags().DurationVar(&interval, trackIntervalFlag, a.cfg.TrackInterval, "Sampling interval, at least 10s")
	cmd.Flags().DurationVar(&poll, "poll", 0, "Extra polling interval, 0 disables")
	return cmd
}
