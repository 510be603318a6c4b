package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"thriftstore/internal/client/account"
	"thriftstore/internal/client/location"
	"thriftstore/internal/common"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.accounts.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.printf("Logged in as %s (%s)\n", sess.Name, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func newSignupCmd(a *app) *cobra.Command {
	var form account.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.accounts.Signup(cmd.Context(), form)
			if err != nil {
				return err
			}
			a.printf("Welcome, %s! You are signed in.\n", sess.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number with country code, e.g. +923001234567")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password, at least 6 characters")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password again")
	return cmd
}

func newSetLocationCmd(a *app) *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "set-location [address]",
		Short: "Register your address; this unlocks selling",
		Long: "Register your address with the server. Pass the address as arguments, " +
			"or --lat/--lon to look it up from coordinates.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			address := strings.TrimSpace(strings.Join(args, " "))

			if address == "" {
				if !cmd.Flags().Changed(latFlag) || !cmd.Flags().Changed(lonFlag) {
					return common.NewValidationError("location", "pass an address or --lat and --lon")
				}
				provider := location.NewProvider(location.NewStaticPlatform(lat, lon), a.geocoder())
				resolved, err := provider.ReverseGeocode(ctx, lat, lon)
				if err != nil {
					return err
				}
				if resolved == location.AddressNotFound {
					return common.NewValidationError("location", "no address found at those coordinates")
				}
				address = resolved
			}

			sess, err := a.accounts.UpdateLocation(ctx, address)
			if err != nil {
				return err
			}
			a.printf("Location set to %q. Access level %s (%s)\n",
				sess.Location, common.FormatAccessLevel(sess.AccessLevel), sess.Role)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, latFlag, 0, "Latitude")
	cmd.Flags().Float64Var(&lon, lonFlag, 0, "Longitude")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			where := sess.Location
			if where == "" {
				where = "(not set)"
			}
			a.printf("User:     #%d %s\nEmail:    %s\nPhone:    %s\nRole:     %s (level %s)\nLocation: %s\n",
				sess.UserID, sess.Name, sess.Email, sess.Phone,
				sess.Role, common.FormatAccessLevel(sess.AccessLevel), where)
			return nil
		},
	}
}
