// Package cli implements listctl, a command line front end for the
// distribution service API.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"distribution-service/pkg/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyBaseURL = "base_url"
	keyToken   = "token"
	keyTimeout = "timeout"
)

// NewRootCmd builds the listctl command tree. Flags are bound to a private
// viper instance reading LISTCTL_* environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LISTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(keyBaseURL, "http://localhost:5000")
	v.SetDefault(keyTimeout, 30*time.Second)

	root := &cobra.Command{
		Use:           "listctl",
		Short:         "Manage agents and distribute contact lists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("base-url", "", "service base URL (env LISTCTL_BASE_URL)")
	root.PersistentFlags().String("token", "", "bearer token (env LISTCTL_TOKEN)")
	root.PersistentFlags().Duration("timeout", 0, "request timeout (env LISTCTL_TIMEOUT)")
	_ = v.BindPFlag(keyBaseURL, root.PersistentFlags().Lookup("base-url"))
	_ = v.BindPFlag(keyToken, root.PersistentFlags().Lookup("token"))
	_ = v.BindPFlag(keyTimeout, root.PersistentFlags().Lookup("timeout"))

	app := &app{v: v}
	root.AddCommand(
		app.registerCmd(),
		app.loginCmd(),
		app.agentsCmd(),
		app.uploadCmd(),
		app.listsCmd(),
		app.summaryCmd(),
		app.filesCmd(),
		app.deleteFileCmd(),
		app.deleteItemCmd(),
	)
	return root
}

type app struct {
	v *viper.Viper
}

// client builds a fresh API client from the resolved flags and environment
func (a *app) client() *client.Client {
	c := client.New(a.v.GetString(keyBaseURL), a.v.GetString(keyToken))
	if timeout := a.v.GetDuration(keyTimeout); timeout > 0 {
		c.HTTPClient.Timeout = timeout
	}
	return c
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseUintArg(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}
