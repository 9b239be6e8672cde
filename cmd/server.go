package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/localq/localq/internal/server"
	"github.com/localq/localq/internal/server/database"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Constants for Viper keys and Flag names
const (
	autoTLSKey           = "auto-tls"
	domainsKey           = "domains"
	logFormatKey         = "log-format"
	logLevelKey          = "log-level"
	maxMessageBytesKey   = "max-message-bytes"
	metricsKey           = "metrics"
	portKey              = "port"
	storageDirKey        = "storage-dir"
	tlsCertificateKey    = "tls-certificate"
	tlsKeyKey            = "tls-key"
	workerBatchSizeKey   = "worker-batch-size"
	workerDeleteAfterKey = "worker-delete-after"
	workerIntervalKey    = "worker-interval"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: fmt.Sprintf("Start the %s server", project),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Build server configuration using the constants
		cfg := &server.Config{
			AutoTLS:           viper.GetBool(autoTLSKey),
			Domains:           viper.GetStringSlice(domainsKey),
			LogFormat:         viper.GetString(logFormatKey),
			LogLevel:          viper.GetString(logLevelKey),
			MaxMessageBytes:   viper.GetInt(maxMessageBytesKey),
			Metrics:           viper.GetBool(metricsKey),
			Port:              viper.GetInt(portKey),
			StorageDir:        viper.GetString(storageDirKey),
			TLSCert:           viper.GetString(tlsCertificateKey),
			TLSKey:            viper.GetString(tlsKeyKey),
			Validation:        true,
			WorkerBatchSize:   viper.GetInt(workerBatchSizeKey),
			WorkerDeleteAfter: viper.GetBool(workerDeleteAfterKey),
			WorkerInterval:    viper.GetDuration(workerIntervalKey),
		}

		server, err := server.New(cfg)
		if err != nil {
			return err
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		go func() {
			err := server.Start()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("server error: %v", err)
			}
		}()

		<-stop
		server.Stop()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverFlags := []flagDef{
		{Name: autoTLSKey, Shorthand: "a", Type: "bool", Default: false, Usage: "Enable automatic TLS via Let's Encrypt. Requires port 80/443 open to the internet for domain validation.", ViperKey: autoTLSKey},
		{Name: domainsKey, Shorthand: "d", Type: "stringArray", Default: []string{}, Usage: "Domains to issue certificate for. Must be used with --auto-tls.", ViperKey: domainsKey},
		{Name: logFormatKey, Shorthand: "f", Type: "string", Default: "text", Usage: "Server logging format. Supported values are 'text' and 'json'.", ViperKey: logFormatKey},
		{Name: logLevelKey, Shorthand: "l", Type: "string", Default: "info", Usage: "Server logging level.", ViperKey: logLevelKey},
		{Name: maxMessageBytesKey, Shorthand: "", Type: "int", Default: database.DefaultMaxMessageBytes, Usage: "Maximum allowed message body size in bytes.", ViperKey: maxMessageBytesKey},
		{Name: metricsKey, Shorthand: "m", Type: "bool", Default: false, Usage: "Enable Prometheus metrics instrumentation.", ViperKey: metricsKey},
		{Name: portKey, Shorthand: "p", Type: "int", Default: 8080, Usage: "Port to listen on. Cannot be used in conjunction with --auto-tls since that will require listening on 80 and 443.", ViperKey: portKey},
		{Name: storageDirKey, Shorthand: "s", Type: "string", Default: "./data", Usage: "Storage directory for database", ViperKey: storageDirKey},
		{Name: tlsCertificateKey, Shorthand: "", Type: "string", Default: "", Usage: "Path to custom TLS certificate. Cannot be used with --auto-tls.", ViperKey: tlsCertificateKey},
		{Name: tlsKeyKey, Shorthand: "", Type: "string", Default: "", Usage: "Path to custom TLS key. Cannot be used with --auto-tls.", ViperKey: tlsKeyKey},
		{Name: workerBatchSizeKey, Shorthand: "", Type: "int", Default: 50, Usage: "How many due schedules to fire per sweep.", ViperKey: workerBatchSizeKey},
		{Name: workerDeleteAfterKey, Shorthand: "", Type: "bool", Default: true, Usage: "Delete one-shot schedules after they fire instead of keeping them as history.", ViperKey: workerDeleteAfterKey},
		{Name: workerIntervalKey, Shorthand: "", Type: "duration", Default: 30 * time.Second, Usage: "How often to fire due schedules. 0 disables the worker.", ViperKey: workerIntervalKey},
	}

	registerFlagTypes(serverCmd, serverFlags)

	viper.SetEnvPrefix(strings.ToUpper(envVarPrefix))
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, d := range serverFlags {
		_ = viper.BindPFlag(d.ViperKey, serverCmd.Flags().Lookup(d.Name))
	}

	serverCmd.Flags().VisitAll(func(f *pflag.Flag) {
		env := strings.ToUpper(envVarPrefix) + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if !strings.Contains(f.Usage, "env:") {
			f.Usage = fmt.Sprintf("%s (env: %s)", f.Usage, env)
		}
	})
}
