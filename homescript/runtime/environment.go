package runtime

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

// Named bindings which persist across executions.
// The environment is owned by the caller, the runtime only mutates its bindings.
type Environment struct {
	Mutex sync.RWMutex
	Data  map[string]*value.Value
}

func NewEnvironment() *Environment {
	return &Environment{
		Data: make(map[string]*value.Value),
	}
}

func (self *Environment) Get(name string) (*value.Value, bool) {
	self.Mutex.RLock()
	defer self.Mutex.RUnlock()

	val, found := self.Data[name]
	return val, found
}

func (self *Environment) Set(name string, val *value.Value) {
	self.Mutex.Lock()
	defer self.Mutex.Unlock()

	self.Data[name] = val
}

func (self *Environment) Delete(name string) {
	self.Mutex.Lock()
	defer self.Mutex.Unlock()

	delete(self.Data, name)
}

// Returns the sorted names of all bindings.
func (self *Environment) Names() []string {
	self.Mutex.RLock()
	defer self.Mutex.RUnlock()

	names := make([]string, 0, len(self.Data))
	for name := range self.Data {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

//
// Streams
//

// Reads at most `size` bytes of input, a size of zero or below reads a whole line.
type InputFunc func(size int64) (string, error)

// The standard streams used by the builtin functions.
// They may be swapped between (but not during) executions.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  InputFunc
}

func StandardStreams() *Streams {
	return &Streams{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  ReaderInput(os.Stdin),
	}
}

// Turns a reader into an input function which reads byte-wise so that no input is buffered past a line.
func ReaderInput(reader io.Reader) InputFunc {
	return func(size int64) (string, error) {
		var builder strings.Builder
		buf := make([]byte, 1)

		for size <= 0 || int64(builder.Len()) < size {
			n, err := reader.Read(buf)
			if n > 0 {
				builder.WriteByte(buf[0])
				if buf[0] == '\n' {
					break
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return builder.String(), err
			}
		}

		return builder.String(), nil
	}
}

// Limits of a single execution.
type CoreLimits struct {
	CallStackMaxSize uint
	StackMaxSize     uint
}

func DefaultLimits() CoreLimits {
	return CoreLimits{
		CallStackMaxSize: 1024,
		StackMaxSize:     16384,
	}
}
