package player

import "fmt"

func searchingText(query string) string {
	return fmt.Sprintf("Searching for %q...", query)
}

func addedText(s Song) string {
	return fmt.Sprintf("Added %s to queue", s.Title)
}

func nowPlayingText(s Song) string {
	return fmt.Sprintf("Now playing: %s - %s (%s)", s.Title, s.Channel, s.HumanDuration)
}

func finishedText(s Song) string {
	return fmt.Sprintf("%s has finished playing.", s.Title)
}

func voteProgressText(actor string, votes, threshold int) string {
	return fmt.Sprintf("%s wants to skip this song (%d/%d)", actor, votes, threshold)
}

const skippingText = "Skipping song."
