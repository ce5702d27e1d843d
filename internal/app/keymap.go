package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeySpace     = " "
	KeySpaceName = "space"
	KeyRecord    = "r"
	KeyStop      = "s"
	KeyUpload    = "u"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyHome      = "g"
	KeyEsc       = "esc"
)
