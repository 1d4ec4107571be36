package command

import (
	"errors"
	"fmt"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/middleware/auth"
	"yamdb/internal/notify"

	"github.com/spf13/cobra"
)

var (
	superuserName  string
	superuserEmail string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an admin superuser and print its confirmation code",
	Long: `Create a user with the admin role and the superuser flag. The confirmation
code is printed instead of mailed; exchange it at POST /api/v1/auth/token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		authService := service.NewAuthService(
			repository.NewUserRepository(db),
			auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL),
			notify.NewLogNotifier(),
			service.AuthOptions{SingleUseCodes: cfg.ConfirmationCodeSingleUse},
		)

		code, err := authService.CreateSuperuser(cmd.Context(), superuserName, superuserEmail)
		if err != nil {
			var vErr *service.ValidationError
			if errors.As(err, &vErr) {
				for field, fieldErr := range vErr.Fields {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", field, fieldErr)
				}
				return errors.New("superuser not created")
			}
			return fmt.Errorf("failed to create superuser: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Superuser %q created.\n", superuserName)
		fmt.Fprintf(out, "Confirmation code: %s\n", code)
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserName, "username", "", "superuser username")
	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "superuser email")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(createSuperuserCmd)
}
