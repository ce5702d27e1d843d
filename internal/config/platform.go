package config

import "runtime"

// defaultInputFormat returns the ffmpeg input format for the host OS.
func defaultInputFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "pulse"
	}
}

func defaultDevice(inputFormat string) string {
	switch inputFormat {
	case "avfoundation":
		return ":default"
	case "dshow":
		return "audio=default"
	default:
		return "default"
	}
}
