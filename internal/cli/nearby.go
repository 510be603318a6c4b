package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/ratelimit"

	"thriftstore/internal/client/location"
	"thriftstore/internal/client/proximity"
	"thriftstore/internal/client/session"
	"thriftstore/internal/common"
)

func newNearbyCmd(a *app) *cobra.Command {
	var lat, lon float64
	var notify bool
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "Find sellers within 5 km that have items from your wishlist",
		Long: "Compares your wishlist with every listing, geocodes matching sellers one at a time " +
			"and keeps those within 5 km. Your position comes from " +
			"--lat/--lon or, when omitted, from your registered location.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.requireSession(ctx)
			if err != nil {
				return err
			}

			geo := a.geocoder()
			provider := location.NewProvider(location.NewStaticPlatform(lat, lon), geo)
			here, err := a.position(ctx, cmd, provider, sess)
			if err != nil {
				return err
			}

			wishlist, err := a.api.Wishlist(ctx)
			if err != nil {
				return a.checked(ctx, err)
			}
			if len(wishlist.Products) == 0 {
				a.printf("Your wishlist is empty\n")
				return nil
			}
			listings, err := a.api.Listings(ctx)
			if err != nil {
				return a.checked(ctx, err)
			}

			var others []proximity.Seller
			for _, s := range proximity.SellersFromListings(listings) {
				if s.ID != sess.UserID {
					others = append(others, s)
				}
			}

			// the geocoder already paces every request by --geocode-interval
			matcher := proximity.NewMatcher(provider, ratelimit.NewUnlimited())
			matches, err := matcher.Match(ctx, *here, wishlist.Products, others)
			if err != nil {
				return err
			}

			notifications := proximity.BuildNotifications(matches)
			if len(notifications) == 0 {
				a.printf("No wishlist items nearby\n")
				return nil
			}
			for _, n := range notifications {
				a.printf("%s\n  %s\n", n.Header, n.Content)
			}

			if notify {
				accepted, err := a.api.RecordNotifications(ctx, proximity.ListingIDs(notifications))
				if err != nil {
					return a.checked(ctx, err)
				}
				a.printf("Saved %d notifications\n", accepted)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, latFlag, 0, "Your latitude")
	cmd.Flags().Float64Var(&lon, lonFlag, 0, "Your longitude")
	cmd.Flags().BoolVar(&notify, "notify", false, "Store the matches in your notification feed")
	return cmd
}

func (a *app) position(ctx context.Context, cmd *cobra.Command, provider *location.Provider, sess *session.Session) (*location.Coordinates, error) {
	if cmd.Flags().Changed(latFlag) && cmd.Flags().Changed(lonFlag) {
		return provider.CurrentLocation(ctx)
	}
	if sess.Location == "" {
		return nil, common.NewValidationError("location", "pass --lat and --lon or run `thriftctl set-location` first")
	}
	here, err := provider.GeocodeAddress(ctx, sess.Location)
	if err != nil {
		return nil, err
	}
	if here == nil {
		return nil, common.NewValidationError("location", "your registered location could not be geocoded")
	}
	return here, nil
}
