package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from the command's input. A single reader is kept so
// buffered lines are not lost between questions.
type prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, reader: bufio.NewReader(in)}
}

// ask returns value unchanged when it is already set.
func (p *prompter) ask(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	return p.readLine()
}

// secret reads without echo on a terminal, and a plain line otherwise.
func (p *prompter) secret(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}
	return p.readLine()
}

func (p *prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errors.New("no input")
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
