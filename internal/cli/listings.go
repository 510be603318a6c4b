package cli

import (
	"github.com/spf13/cobra"

	"thriftstore/internal/client/api"
)

func newListingsCmd(a *app) *cobra.Command {
	var mine bool
	var userID uint
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "List items for sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if mine {
				sess, err := a.requireSession(ctx)
				if err != nil {
					return err
				}
				userID = sess.UserID
			}

			var listings []api.Listing
			var err error
			if userID != 0 {
				listings, err = a.api.UserListings(ctx, userID)
			} else {
				listings, err = a.api.Listings(ctx)
			}
			if err != nil {
				return a.checked(ctx, err)
			}

			if len(listings) == 0 {
				a.printf("No listings\n")
				return nil
			}
			for _, l := range listings {
				a.printf("#%-5d %-30s %10.2f  %-12s %s\n", l.ID, l.Name, l.Price, l.Quality, l.Location)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "Only your own listings")
	cmd.Flags().UintVar(&userID, "user", 0, "Only listings of this user id")
	return cmd
}
