package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kubesnap/kubesnap/pkg/k8sutil"
	"github.com/kubesnap/kubesnap/pkg/logger"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kubesnap",
		Short:        "Capture a diagnostic snapshot of a Kubernetes namespace",
		Long:         `kubesnap takes a read-only, timestamped snapshot of one namespace — pod descriptions and logs, services, ingresses, events, node capacity, optional resource usage and load balancer health — into a directory bundle for offline troubleshooting.`,
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			v := viper.GetViper()
			v.BindPFlags(cmd.Flags())

			logger.SetupLogger(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(viper.GetViper())
		},
	}

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(VersionCmd())

	cmd.Flags().StringP("namespace", "n", "", "namespace to snapshot (default \"default\")")
	cmd.Flags().Int64("log-tail", 0, "number of log lines to capture per pod (default 200)")
	cmd.Flags().Int("event-tail", 0, "number of events to capture (default 50)")
	cmd.Flags().StringP("output", "o", "", "parent directory for the timestamped bundle (default \"./kubesnap-output\")")
	cmd.Flags().Bool("debug", false, "enable debug logging")

	viper.BindPFlags(cmd.Flags())

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	k8sutil.AddFlags(cmd.Flags())

	logger.InitKlogFlags(cmd.Flags())

	return cmd
}

func InitAndExecute() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("KUBESNAP")
	viper.AutomaticEnv()
}
