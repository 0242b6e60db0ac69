package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/whaleback/pkg/config"
	"github.com/wonny/whaleback/pkg/logger"
)

// testLoggerCmd represents the test-logger command
var testLoggerCmd = &cobra.Command{
	Use:   "test-logger",
	Short: "로거 출력 테스트",
	Long: `레벨별 로그 출력을 확인합니다. LOG_LEVEL/LOG_FORMAT 환경변수로
출력을 조정할 수 있습니다.

Example:
  go run ./cmd/whaleback test-logger
  LOG_LEVEL=debug LOG_FORMAT=json go run ./cmd/whaleback test-logger`,
	RunE: runTestLogger,
}

func init() {
	rootCmd.AddCommand(testLoggerCmd)
}

func runTestLogger(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Whaleback Logger Test ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	log.Debug("Debug level message")
	log.Info("Info level message")
	log.Warn("Warn level message")
	log.Error("Error level message")

	log.WithField("ticker", "005930").Info("Message with a single field")
	log.WithFields(map[string]interface{}{
		"ticker": "005930",
		"score":  82.5,
		"grade":  "A",
	}).Info("Message with multiple fields")
	log.WithError(errors.New("sample failure")).Error("Message with error")

	fmt.Println("\n✅ Logger test complete")
	return nil
}
