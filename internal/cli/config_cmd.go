package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/shopctl/internal/config"
	"github.com/aidanlsb/shopctl/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the shopctl config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := getConfigPath()
		created, err := config.CreateDefault(path)
		if err != nil {
			return &codedError{code: ErrFileWriteError, err: err}
		}
		if jsonOutput {
			outputSuccess(map[string]interface{}{"path": path, "created": created}, nil, nil)
			return nil
		}
		if created {
			fmt.Fprintln(stdout, ui.Successf("Created %s", path))
		} else {
			fmt.Fprintln(stdout, ui.Info("Config already exists at "+path))
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		if jsonOutput {
			outputSuccess(map[string]interface{}{
				"path":   getConfigPath(),
				"config": c,
			}, nil, nil)
			return nil
		}
		fmt.Fprintln(stdout, ui.Hint("# "+getConfigPath()))
		return toml.NewEncoder(stdout).Encode(c)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			outputSuccess(map[string]interface{}{
				"config": getConfigPath(),
				"state":  getStatePath(),
			}, nil, nil)
			return nil
		}
		fmt.Fprintln(stdout, getConfigPath())
		return nil
	},
}

var (
	storeDomain     string
	storeTokenEnv   string
	storeAPIVersion string
	storeMakeDef    bool
)

var configSetStoreCmd = &cobra.Command{
	Use:   "set-store <name>",
	Short: "Add or update a store",
	Example: `  shopctl config set-store frost --domain frost-mugs.myshopify.com --token-env FROST_ADMIN_TOKEN --default`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return newCodedError(ErrMissingArgument, "store name is required")
		}

		c := getConfig()
		store, exists := c.Stores[name]
		if cmd.Flags().Changed("domain") {
			store.Domain = strings.TrimSpace(storeDomain)
		}
		if cmd.Flags().Changed("token-env") {
			store.TokenEnv = strings.TrimSpace(storeTokenEnv)
		}
		if cmd.Flags().Changed("api-version") {
			store.APIVersion = strings.TrimSpace(storeAPIVersion)
		}
		if store.Domain == "" {
			return newCodedError(ErrMissingArgument, "--domain is required for a new store")
		}

		if c.Stores == nil {
			c.Stores = make(map[string]config.Store)
		}
		c.Stores[name] = store
		if storeMakeDef {
			c.DefaultStore = name
		}

		path := getConfigPath()
		if err := config.SaveTo(path, c); err != nil {
			return &codedError{code: ErrFileWriteError, err: err}
		}

		if jsonOutput {
			outputSuccess(map[string]interface{}{
				"name":    name,
				"store":   store,
				"default": c.DefaultStore == name,
				"created": !exists,
			}, nil, nil)
			return nil
		}
		verb := "Updated"
		if !exists {
			verb = "Added"
		}
		fmt.Fprintln(stdout, ui.Successf("%s store %s (%s)", verb, ui.TypeName(name), store.Domain))
		return nil
	},
}

func init() {
	configSetStoreCmd.Flags().StringVar(&storeDomain, "domain", "", "Shop domain, e.g. frost-mugs.myshopify.com")
	configSetStoreCmd.Flags().StringVar(&storeTokenEnv, "token-env", "", "Environment variable holding the access token")
	configSetStoreCmd.Flags().StringVar(&storeAPIVersion, "api-version", "", "Admin API version, e.g. "+config.DefaultAPIVersion)
	configSetStoreCmd.Flags().BoolVar(&storeMakeDef, "default", false, "Make this the default store")

	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd, configSetStoreCmd)
	rootCmd.AddCommand(configCmd)
}
