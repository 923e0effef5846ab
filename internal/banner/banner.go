package banner

import (
	"loginload/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
    __                _       __                __
   / /___  ____ _    (_)___  / /___  ____ _____/ /
  / / __ \/ __ '/   / / __ \/ / __ \/ __ '/ __  / 
 / / /_/ / /_/ /   / / / / / / /_/ / /_/ / /_/ /  
/_/\____/\__, /   /_/_/ /_/_/\____/\__,_/\__,_/   
        /____/                                    `

	return "\n" + style.Render(ascii) + "\n"
}
