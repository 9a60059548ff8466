// Package cli implements the fieldcrypt operator tool.
//
// Commands:
//
//	derive   -salt EMAIL                     print the field key for a password
//	encrypt  (-key HEX | -salt EMAIL) VALUE  seal one value into the marker envelope
//	decrypt  (-key HEX | -salt EMAIL) VALUE  open one envelope, -compat to never fail
//	migrate  -d DSN -email EMAIL [-dry-run]  encrypt every legacy private record of a user
//	send     -email EMAIL -chat ID MESSAGE   post a message, encrypted before it is sent
//	upload   -email EMAIL FILE               store an image through a presigned URL
//
// Passwords are always read from the terminal without echo. A missing VALUE
// is prompted for on stdin.
package cli
