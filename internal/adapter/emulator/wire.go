package emulator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	cyberphone "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"gitlab.com/mips-autograder.net/internal/domain"
)

// ProtocolVersion is sent with every request so the engine can reject inputs it
// does not understand.
const ProtocolVersion = 1

var errMalformed = errors.New("malformed engine output")

type wireRequest struct {
	Protocol         int              `json:"protocol"`
	SourceCode       string           `json:"source_code"`
	InitialRegisters map[string]int64 `json:"initial_registers"`
	InitialMemory    map[string]int64 `json:"initial_memory"`
	CheckMemory      []uint32         `json:"check_memory"`
}

type wireResponse struct {
	Registers map[string]int64 `json:"registers"`
	Memory    map[string]int64 `json:"memory"`
	Error     string           `json:"error"`
}

// encodeRequest renders req as RFC 8785 canonical JSON, so identical runs
// always feed the engine identical bytes.
func encodeRequest(req *domain.ExecutionRequest) ([]byte, error) {
	check := make([]uint32, 0, len(req.CheckMemory))
	for _, addr := range req.CheckMemory {
		check = append(check, uint32(addr))
	}

	raw, err := json.Marshal(wireRequest{
		Protocol:         ProtocolVersion,
		SourceCode:       req.Source,
		InitialRegisters: req.InitialRegisters.Names(),
		InitialMemory:    req.InitialMemory.Decimal(),
		CheckMemory:      check,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal engine request: %w", err)
	}

	canonical, err := cyberphone.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize engine request: %w", err)
	}
	return canonical, nil
}

// decodeResponse parses the single JSON object the engine writes to stdout.
// A non-empty error field is returned as engineErr, everything unusable as an
// error wrapping errMalformed.
func decodeResponse(out []byte) (regs domain.RegisterState, mem domain.MemoryState, engineErr string, err error) {
	dec := json.NewDecoder(bytes.NewReader(out))
	var resp wireResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, nil, "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, "", fmt.Errorf("%w: trailing data after response object", errMalformed)
	}

	if resp.Error != "" {
		return nil, nil, resp.Error, nil
	}

	regs, err = domain.ParseRegisterState(resp.Registers)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	mem, err = domain.ParseMemoryState(resp.Memory)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	return regs, mem, "", nil
}
