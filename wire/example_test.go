package wire_test

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pior/mpdcmd/wire"
)

// ExampleDecoder demonstrates pulling typed values from a cursor.
func ExampleDecoder() {
	d := wire.NewDecoder(`"1""42"tet`)

	b, _ := d.DecodeBool()
	n, _ := d.DecodeUint32()
	s, _ := d.DecodeString()

	fmt.Println(b, n, s)
	// Output: true 42 tet
}

// ExampleDecoder_errors demonstrates matching decode errors.
func ExampleDecoder_errors() {
	d := wire.NewDecoder(`"2"`)

	_, err := d.DecodeBool()
	fmt.Println(errors.Is(err, wire.ErrExpectedBoolean))
	fmt.Println(err)
	// Output:
	// true
	// wire: expected boolean at offset 0
}

// ExampleReadResponse demonstrates reading a server response.
func ExampleReadResponse() {
	r := bufio.NewReader(strings.NewReader("volume: 80\nstate: play\nOK\n"))

	resp, err := wire.ReadResponse(r)
	if err != nil {
		log.Fatal(err)
	}

	state, _ := resp.Get("state")
	fmt.Println(state)
	// Output: play
}

// ExampleResponseWriter demonstrates writing a response and an error.
func ExampleResponseWriter() {
	rw := wire.NewResponseWriter(os.Stdout)

	rw.FieldInt("volume", 80)
	_ = rw.OK()
	_ = rw.Ack(&wire.AckError{Code: wire.AckNoExist, Command: "load", Message: "No such playlist"})
	_ = rw.Flush()
	// Output:
	// volume: 80
	// OK
	// ACK [50@0] {load} No such playlist
}
