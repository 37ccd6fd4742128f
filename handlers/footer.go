package handlers

import "restore-site/config"

type Footer struct {
	BuildDate    string
	BuildId      string
	BuildIdShort string
}

func MakeFooter() Footer {
	buildID := config.GetGitSHA()
	short := buildID
	if len(short) > 7 {
		short = short[0:7]
	}
	return Footer{
		BuildDate:    config.GetBuildDate(),
		BuildId:      buildID,
		BuildIdShort: short,
	}
}
