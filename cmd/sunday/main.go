// sunday is a terminal push-to-talk client for the Sunday voice assistant.
//
// Usage:
//
//	sunday                                  # talk to http://localhost:5000
//	sunday --base-url http://10.0.0.2:5000  # talk to another backend
//	sunday --audio portaudio                # use PortAudio instead of miniaudio
//
// Speech recognition needs DEEPGRAM_API_KEY, read from the environment or a
// .env file. Without it the client only accepts typed messages.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
