package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loginload/internal/credentials"
	"loginload/internal/targetsrv"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Run the bundled login target server",
	Long: `Serves POST /login.php (200 on valid credentials, 403 otherwise) plus
/fast, /slow and /error for runner experiments. Users come from the built-in
scenario tables, or from the Redis hash "users" when --redis-addr is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		port, _ := cmd.Flags().GetInt("port")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")
		seedUsers, _ := cmd.Flags().GetBool("seed-users")

		var store targetsrv.UserStore
		if redisAddr == "" {
			store = targetsrv.NewMemoryStore(credentials.RandomLoginTable, credentials.CheckedLoginTable)
		} else {
			rs, closeFn, err := redisUserStore(ctx, redisAddr, seedUsers)
			if err != nil {
				return err
			}
			defer closeFn()
			store = rs
		}

		srv := targetsrv.NewServer(store, logger)
		return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
	},
}

func init() {
	targetCmd.Flags().IntP("port", "p", 8080, "Port to run the target server on")
	targetCmd.Flags().String("redis-addr", "", "Redis address holding the users hash (default is in-memory users)")
	targetCmd.Flags().Bool("seed-users", true, "write the built-in credentials into Redis on start")
}

func redisUserStore(ctx context.Context, addr string, seed bool) (*targetsrv.RedisStore, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	logger.Info("connected to redis", zap.String("addr", addr))

	store := targetsrv.NewRedisStore(client)
	if seed {
		if err := store.Seed(ctx, credentials.RandomLoginTable, credentials.CheckedLoginTable); err != nil {
			client.Close()
			return nil, nil, err
		}
	}
	return store, client.Close, nil
}
