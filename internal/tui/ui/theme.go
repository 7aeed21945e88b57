package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	MutedColor        tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	AccentKeyColor    tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color

	SelfColor    tcell.Color
	PeerColor    tcell.Color
	SeenColor    tcell.Color
	FailedColor  tcell.Color
	BadgeColor   tcell.Color
	OnlineColor  tcell.Color
	OfflineColor tcell.Color
}

// DefaultTheme returns the green-on-black Mingle theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorWhiteSmoke,
		MutedColor:        tcell.ColorGray,
		BorderColor:       tcell.ColorSeaGreen,
		BorderFocusColor:  tcell.ColorLimeGreen,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorMediumSeaGreen,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorLimeGreen,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorDarkSeaGreen,
		MenuKeyColor:      tcell.ColorMediumSeaGreen,
		AccentKeyColor:    tcell.ColorOrange,
		TitleColor:        tcell.ColorLimeGreen,
		CounterColor:      tcell.ColorPapayaWhip,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorMediumSeaGreen,

		SelfColor:    tcell.ColorLightGreen,
		PeerColor:    tcell.ColorLightSkyBlue,
		SeenColor:    tcell.ColorDeepSkyBlue,
		FailedColor:  tcell.ColorOrangeRed,
		BadgeColor:   tcell.ColorLimeGreen,
		OnlineColor:  tcell.ColorLimeGreen,
		OfflineColor: tcell.ColorGray,
	}
}

// Tag returns c as a tview color tag name, e.g. "#32cd32".
func Tag(c tcell.Color) string {
	return colorName(c)
}
