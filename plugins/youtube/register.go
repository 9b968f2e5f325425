package youtube

import (
	"fmt"
	"strings"

	platformplugins "github.com/sepehrmoghiseh/musifyyy/bot/platform/plugins"
)

func init() {
	if err := platformplugins.Register("youtube", buildContribution); err != nil {
		panic(err)
	}
}

func buildContribution(env platformplugins.Env) (*platformplugins.Contribution, error) {
	if env.Engine == nil {
		return nil, fmt.Errorf("extractor engine required")
	}
	playerClient := ""
	if env.Config != nil {
		playerClient = strings.Trim(env.Config.GetPluginString("youtube", "player_client"), "`\"' ")
	}
	if env.Logger != nil && env.CookieFile == "" {
		env.Logger.Warn("no cookie file found; youtube downloads may require sign-in")
	}
	return &platformplugins.Contribution{
		Platform: NewPlatform(env.Engine, env.CookieFile, playerClient),
	}, nil
}
