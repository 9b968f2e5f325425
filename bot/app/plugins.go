package app

// Built-in platforms register their factories on import.
import (
	_ "github.com/sepehrmoghiseh/musifyyy/plugins/soundcloud"
	_ "github.com/sepehrmoghiseh/musifyyy/plugins/youtube"
)
