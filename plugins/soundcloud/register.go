package soundcloud

import (
	"fmt"

	platformplugins "github.com/sepehrmoghiseh/musifyyy/bot/platform/plugins"
)

func init() {
	if err := platformplugins.Register("soundcloud", buildContribution); err != nil {
		panic(err)
	}
}

func buildContribution(env platformplugins.Env) (*platformplugins.Contribution, error) {
	if env.Engine == nil {
		return nil, fmt.Errorf("extractor engine required")
	}
	return &platformplugins.Contribution{
		Platform: NewPlatform(env.Engine),
	}, nil
}
