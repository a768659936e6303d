package wire

import "strings"

// ArgumentDecoder decodes the argument of one command variant from the cursor
// and builds the command value.
type ArgumentDecoder[C any] func(d *Decoder) (C, error)

// CommandSet maps command names to variants of the command type C.
//
// The decoder calls Bare when the line carries no argument, and Variant when
// a name is followed by a space. Unknown names must be reported with an
// *UnknownCommandError.
type CommandSet[C any] interface {
	// Bare resolves a command given without argument.
	Bare(name string) (C, error)

	// Variant returns the decoder for the argument of the named command.
	Variant(name string) (ArgumentDecoder[C], error)
}

// Unmarshal decodes one command line. The whole line must be consumed: a
// single trailing line feed is accepted, anything else after the command
// fails with ErrTrailingCharacters.
func Unmarshal[C any](line string, set CommandSet[C]) (C, error) {
	d := NewDecoder(line)

	cmd, err := DecodeCommand(d, set)
	if err != nil {
		var zero C
		return zero, err
	}

	if !d.Done() {
		var zero C
		return zero, syntaxError(d.pos, ErrTrailingCharacters)
	}

	return cmd, nil
}

// DecodeCommand decodes a command name and its optional argument, followed by
// end of input or a single line feed.
func DecodeCommand[C any](d *Decoder, set CommandSet[C]) (C, error) {
	var zero C

	if strings.IndexByte(d.Remaining(), space) < 0 {
		name := d.DecodeIdentifier()
		cmd, err := set.Bare(name)
		if err != nil {
			return zero, withCommandName(name, err)
		}
		if err := d.decodeTerminator(); err != nil {
			return zero, withCommandName(name, err)
		}
		return cmd, nil
	}

	p := &dispatcher[C]{d: d, set: set}
	cmd, err := p.run()
	if err != nil {
		return zero, withCommandName(p.name, err)
	}
	return cmd, nil
}

type dispatchState uint8

const (
	stateNameExpected dispatchState = iota
	stateNameResolved
	statePayloadDecoding
	stateTerminated
)

// dispatcher drives the decoding of a command line that carries an argument:
// the name, exactly one space, the argument, then the terminator.
type dispatcher[C any] struct {
	d     *Decoder
	set   CommandSet[C]
	state dispatchState
	name  string
}

func (p *dispatcher[C]) run() (C, error) {
	var zero C

	decodeArg, err := p.resolveName()
	if err != nil {
		return zero, err
	}

	p.state = statePayloadDecoding
	cmd, err := decodeArg(p.d)
	if err != nil {
		return zero, err
	}

	if err := p.d.decodeTerminator(); err != nil {
		return zero, err
	}

	p.state = stateTerminated
	return cmd, nil
}

// resolveName moves from NameExpected to NameResolved.
func (p *dispatcher[C]) resolveName() (ArgumentDecoder[C], error) {
	p.name = p.d.DecodeIdentifier()

	decodeArg, err := p.set.Variant(p.name)
	if err != nil {
		return nil, err
	}

	rest := p.d.Remaining()
	if len(rest) == 0 || rest[0] != space {
		return nil, syntaxError(p.d.pos, ErrExpectedCommandSpace)
	}
	if len(rest) > 1 && rest[1] == space {
		return nil, syntaxError(p.d.pos+1, ErrExpectedCommandSpace)
	}
	p.d.pos++

	p.state = stateNameResolved
	return decodeArg, nil
}

func withCommandName(name string, err error) error {
	if _, ok := CommandName(err); ok {
		return err
	}
	return &CommandError{Name: name, Err: err}
}
