// apps/go-server/internal/wordsvc/protocol.go
//
// Datagram protocol of the word service. A request is "<op>;<payload>", the
// reply is a bare string.
//
//   A;<word>   add                  -> confirmation sentence
//   B;<word>   remove               -> confirmation sentence
//   C;<word>   exists               -> "1" | "0"
//   D;<char>   word containing char -> word | ""
//   E;<n>      word of length >= n  -> word | ""
//
// Any other op gets ErrorReply.

package wordsvc

import "fmt"

const (
	OpAdd        byte = 'A'
	OpRemove     byte = 'B'
	OpContains   byte = 'C'
	OpContaining byte = 'D'
	OpMinLength  byte = 'E'
)

// ErrorReply answers malformed requests and unknown ops.
const ErrorReply = "error detected"

// MaxDatagram bounds request and reply size.
const MaxDatagram = 1024

func encodeRequest(op byte, payload string) []byte {
	return []byte(string(op) + ";" + payload)
}

func addedReply(w string) string {
	return fmt.Sprintf("Successfully added word: '%s' to the database.", w)
}

func addExistsReply(w string) string {
	return fmt.Sprintf("Unsuccessful add; word: '%s' already exists in database.", w)
}

func removedReply(w string) string {
	return fmt.Sprintf("Successfully removed word: '%s' from the database.", w)
}

func removeMissingReply(w string) string {
	return fmt.Sprintf("Unsuccessful remove; word: '%s' not found in database.", w)
}

func invalidWordReply(w string) string {
	return fmt.Sprintf("Unsuccessful; '%s' is not a valid word (letters a-z only).", w)
}
