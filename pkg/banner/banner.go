package banner

import (
	"fmt"

	"chatd/pkg/config"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗██████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔══██╗
██║     ███████║███████║   ██║   ██║  ██║
██║     ██╔══██║██╔══██║   ██║   ██║  ██║
╚██████╗██║  ██║██║  ██║   ██║   ██████╔╝
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═════╝
`

// Print writes the startup banner and a short effective-config summary.
func Print(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Server.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("WS  /ws/chat/{conversationID} - conversation room socket")
	fmt.Println("WS  /ws/presence/{userID}     - personal notification + presence socket")
	fmt.Println("GET /healthz | /readyz | /metrics")

	if eff.Config != nil && eff.Config.Backbone.Enabled {
		fmt.Println("\n== Backbone ===================================================")
		fmt.Printf("Publish:  %s\n", eff.Config.Backbone.Publish)
		fmt.Printf("Peers:    %v\n", eff.Config.Backbone.Peers)
	}
	fmt.Println()
}
