package cli

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEnv()
		if err != nil {
			return err
		}

		userID, _ := cmd.Flags().GetString("user-id")
		employeeID, _ := cmd.Flags().GetString("employee-id")
		companyID, _ := cmd.Flags().GetString("company-id")
		role, _ := cmd.Flags().GetString("role")

		svc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
		return runToken(cmd, svc, userID, employeeID, companyID, role)
	},
}

func init() {
	tokenCmd.Flags().String("user-id", "", "user UUID")
	tokenCmd.Flags().String("employee-id", "", "employee UUID")
	tokenCmd.Flags().String("company-id", "", "company UUID")
	tokenCmd.Flags().String("role", string(user.RoleEmployee), "owner, manager, employee or pending")
	_ = tokenCmd.MarkFlagRequired("user-id")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func runToken(cmd *cobra.Command, svc jwt.Service, userID, employeeID, companyID, role string) error {
	r := user.Role(role)
	if !r.IsValid() {
		return fmt.Errorf("%w: %q", user.ErrInvalidRole, role)
	}

	token, exp, err := svc.GenerateAccessToken(jwt.Caller{
		UserID:     userID,
		EmployeeID: optional(employeeID),
		CompanyID:  optional(companyID),
		Role:       r,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n# expires_at=%s\n", token, time.Unix(exp, 0).UTC().Format(time.RFC3339))
	return err
}
