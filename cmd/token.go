package cmd

import (
	"fmt"

	internalApp "github.com/haierkeys/note-registry-service/internal/app"
	pkgapp "github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/code"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type tokenFlags struct {
	config   string
	identity string
	ip       string
}

func init() {
	flags := new(tokenFlags)

	var tokenCommand = &cobra.Command{
		Use:   "token -i identity [-c config_file]",
		Short: "Issue an auth token for an identity. // 为身份签发认证 Token。",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.identity == "" {
				return fmt.Errorf("identity is required")
			}

			config, err := resolveConfigPath(flags.config)
			if err != nil {
				return err
			}
			appConfig, _, err := internalApp.LoadConfig(config)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			token, err := pkgapp.NewTokenManager(appConfig.GetTokenConfig()).Generate(flags.identity, flags.ip)
			if err != nil {
				return code.ErrorTokenGenerate.WithDetails(err.Error())
			}

			bootstrapLogger.Info("token issued",
				zap.String("identity", flags.identity),
				zap.Duration("expiry", appConfig.GetTokenExpiry()))
			fmt.Println(token)
			return nil
		},
	}

	rootCmd.AddCommand(tokenCommand)
	fs := tokenCommand.Flags()
	fs.StringVarP(&flags.config, "config", "c", "", "config file")
	fs.StringVarP(&flags.identity, "identity", "i", "", "identity the token is issued to")
	fs.StringVar(&flags.ip, "ip", "", "client ip recorded in the token")
}
