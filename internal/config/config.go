package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env     string
		Name    string
		Version string
	} `mapstructure:"app"`

	API struct {
		BaseURL   string `mapstructure:"base_url"`
		Version   string
		CompanyDB string `mapstructure:"company_db"`

		Timeout      time.Duration
		BatchTimeout time.Duration `mapstructure:"batch_timeout"`
		BatchSize    int           `mapstructure:"batch_size"`
		ScannerDelay time.Duration `mapstructure:"scanner_delay"`
	} `mapstructure:"api"`

	Endpoints struct {
		Login              string
		CurrentUser        string `mapstructure:"current_user"`
		CartMaster         string `mapstructure:"cart_master"`
		Hanger             string
		BinLocations       string `mapstructure:"bin_locations"`
		Items              string
		ImmaturePlanner    string `mapstructure:"immature_planner"`
		BatchNumberDetails string `mapstructure:"batch_number_details"`
		Harvest            string
		HarvestLines       string `mapstructure:"harvest_lines"`
		Batch              string
		Log                string
	} `mapstructure:"endpoints"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Store struct {
		Path string
	} `mapstructure:"store"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		// Scanner stations usually run on env vars and defaults alone,
		// so a missing config file is not an error.
		var nf viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &nf) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// setDefaults pins the same contract the mobile client shipped with:
// everything is overridable, but out of the box the app points at QAS.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.name", "SH")
	v.SetDefault("app.version", "1.0.10")

	v.SetDefault("api.base_url", "https://ghdev.seedandbeyond.com:50000")
	v.SetDefault("api.version", "/b1s/v1")
	v.SetDefault("api.company_db", "__QAS")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.batch_timeout", 60*time.Second)
	v.SetDefault("api.batch_size", 200)
	v.SetDefault("api.scanner_delay", 300*time.Millisecond)

	v.SetDefault("endpoints.login", "/Login")
	v.SetDefault("endpoints.current_user", "/UsersService_GetCurrentUser")
	v.SetDefault("endpoints.cart_master", "/U_CART_MASTER")
	v.SetDefault("endpoints.hanger", "/U_HANGER")
	v.SetDefault("endpoints.bin_locations", "/BinLocations")
	v.SetDefault("endpoints.items", "/Items")
	v.SetDefault("endpoints.immature_planner", "/sml.svc/CV_IMMATURE_PLANNER_VW")
	v.SetDefault("endpoints.batch_number_details", "/BatchNumberDetails")
	v.SetDefault("endpoints.harvest", "/NPFET")
	v.SetDefault("endpoints.harvest_lines", "/NPFETLINES")
	v.SetDefault("endpoints.batch", "/$batch")
	v.SetDefault("endpoints.log", "/NBNLG")

	v.SetDefault("http.addr", ":8087")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("store.path", "harvest.db")
}

// URL builds the full address of an endpoint: base + version prefix + path.
func (c Config) URL(endpoint string) string {
	return c.API.BaseURL + c.API.Version + endpoint
}
