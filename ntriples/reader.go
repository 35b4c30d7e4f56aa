// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ntriples

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/badwolf-labs/colstore/rdf"
)

// Read parses triples out of r, one N-Triples line per triple. Blank
// lines and lines starting with '#' are skipped. Read stops at the
// first line it fails to parse; the triples read until then are still
// returned along with the error.
func Read(r io.Reader) ([]rdf.Triple, error) {
	var out []rdf.Triple
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		t, err := Parse(text)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, scanner.Err()
}

// ReadFile reads every triple serialized in the N-Triples file at path.
func ReadFile(path string) ([]rdf.Triple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ntriples: open %q: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Parse parses a single N-Triples line "<s> <p> <o> ." into a triple.
// Subjects are IRIs or blank nodes, predicates are IRIs, objects are
// IRIs, blank nodes or literals with an optional ^^<datatype> or @lang
// suffix.
func Parse(line string) (rdf.Triple, error) {
	p := &lineParser{in: line}
	subj, err := p.term()
	if err != nil {
		return rdf.Triple{}, err
	}
	if subj.Type.Kind == rdf.KindLiteral {
		return rdf.Triple{}, p.errorf("literal in subject position")
	}
	pred, err := p.term()
	if err != nil {
		return rdf.Triple{}, err
	}
	if pred.Type.Kind != rdf.KindIRI {
		return rdf.Triple{}, p.errorf("predicate must be an IRI")
	}
	obj, err := p.term()
	if err != nil {
		return rdf.Triple{}, err
	}
	p.skipSpace()
	if !strings.HasPrefix(p.rest(), ".") {
		return rdf.Triple{}, p.errorf("missing terminating dot")
	}
	return rdf.Triple{Subject: subj, Predicate: pred.Lexical, Object: obj}, nil
}

type lineParser struct {
	in  string
	pos int
}

func (p *lineParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("ntriples: %s in %q", fmt.Sprintf(format, args...), p.in)
}

func (p *lineParser) rest() string { return p.in[p.pos:] }

func (p *lineParser) skipSpace() {
	for p.pos < len(p.in) && (p.in[p.pos] == ' ' || p.in[p.pos] == '\t') {
		p.pos++
	}
}

func (p *lineParser) term() (rdf.Term, error) {
	p.skipSpace()
	r := p.rest()
	switch {
	case strings.HasPrefix(r, "<"):
		end := strings.IndexByte(r, '>')
		if end < 0 {
			return rdf.Term{}, p.errorf("unterminated IRI")
		}
		p.pos += end + 1
		return rdf.NewIRI(r[1:end]), nil
	case strings.HasPrefix(r, "_:"):
		end := 2
		for end < len(r) && r[end] != ' ' && r[end] != '\t' {
			end++
		}
		p.pos += end
		return rdf.NewBlankNode(r[2:end]), nil
	case strings.HasPrefix(r, `"`):
		return p.literal()
	default:
		return rdf.Term{}, p.errorf("unexpected term")
	}
}

func (p *lineParser) literal() (rdf.Term, error) {
	r := p.rest()
	var sb strings.Builder
	i := 1
	closed := false
	for i < len(r) {
		c := r[i]
		if c == '\\' && i+1 < len(r) {
			switch r[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(r[i+1])
			}
			i += 2
			continue
		}
		if c == '"' {
			closed = true
			i++
			break
		}
		sb.WriteByte(c)
		i++
	}
	if !closed {
		return rdf.Term{}, p.errorf("unterminated literal")
	}
	lex := sb.String()
	rest := r[i:]
	switch {
	case strings.HasPrefix(rest, "^^<"):
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return rdf.Term{}, p.errorf("unterminated datatype IRI")
		}
		p.pos += i + end + 1
		return rdf.NewLiteral(lex, rest[3:end]), nil
	case strings.HasPrefix(rest, "@"):
		end := 1
		for end < len(rest) && rest[end] != ' ' && rest[end] != '\t' {
			end++
		}
		p.pos += i + end
		return rdf.NewLangString(lex, rest[1:end]), nil
	default:
		p.pos += i
		return rdf.NewLiteral(lex, rdf.XSDString), nil
	}
}
