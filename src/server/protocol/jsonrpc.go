package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"bismut-lsp/src/internal/common"
	"bismut-lsp/src/internal/constants"
)

// JSON-RPC protocol constants
const (
	JSONRPCVersion = "2.0"
)

// JSON-RPC error codes
const (
	ParseError     = -32700 // Invalid JSON was received
	InvalidRequest = -32600 // The JSON sent is not a valid Request object
	MethodNotFound = -32601 // The method does not exist / is not available
	InvalidParams  = -32602 // Invalid method parameter(s)
	InternalError  = -32603 // Internal JSON-RPC error
)

// Message represents a JSON-RPC 2.0 message in either direction. Params
// stays raw so handlers decode into their own typed structs.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// MessageHandler receives client-initiated traffic from the read loop.
type MessageHandler interface {
	HandleRequest(method string, id interface{}, params json.RawMessage) error
	HandleNotification(method string, params json.RawMessage) error
}

// Writer frames outgoing messages with Content-Length headers. Writes are
// serialized so notification publishers on other goroutines never
// interleave bytes with request responses.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a framing writer over out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteMessage sends a JSON-RPC message with Content-Length header framing.
func (w *Writer) WriteMessage(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintf(w.out, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}

// WriteResponse sends a success or error response for id.
func (w *Writer) WriteResponse(id interface{}, result interface{}, rpcErr *RPCError) error {
	return w.WriteMessage(Message{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
		Error:   rpcErr,
	})
}

// WriteNotification sends a server-initiated notification (no ID).
func (w *Writer) WriteNotification(method string, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return w.WriteMessage(Message{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  raw,
	})
}

// ReadLoop consumes Content-Length framed messages from reader and routes
// them to handler until EOF or a stop signal. Malformed frames are logged
// and skipped; only transport-level failures end the loop.
func ReadLoop(reader io.Reader, handler MessageHandler, stopCh <-chan struct{}) error {
	bufReader := bufio.NewReaderSize(reader, constants.MessageBufferSize)

	for {
		select {
		case <-stopCh:
			return nil
		default:
		}

		var contentLength int
		for {
			line, err := bufReader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					// EOF is the normal end of a stdio session
					return nil
				}
				return err
			}

			line = strings.TrimSpace(line)
			if line == "" {
				break
			}

			if strings.HasPrefix(line, "Content-Length:") {
				lengthStr := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
				length, err := strconv.Atoi(lengthStr)
				if err != nil {
					common.ServerLogger.Debug("Failed to parse Content-Length: %s", lengthStr)
					continue
				}
				contentLength = length
			}
		}

		if contentLength <= 0 {
			continue
		}

		body := make([]byte, contentLength)
		if _, err := io.ReadFull(bufReader, body); err != nil {
			return err
		}

		if err := HandleMessage(body, handler); err != nil {
			common.ServerLogger.Error("Error handling message: %v", err)
			// Keep the session alive for subsequent messages
		}
	}
}

// HandleMessage decodes a single framed message and routes it to handler.
func HandleMessage(data []byte, handler MessageHandler) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		common.ServerLogger.Error("Failed to unmarshal JSON-RPC message: %v", err)
		return err
	}

	if msg.Method == "" {
		// A client response to a server request; nothing awaits these.
		if msg.ID != nil {
			common.ServerLogger.Debug("Ignoring client response: id=%v", msg.ID)
			return nil
		}
		common.ServerLogger.Warn("Received malformed message (no ID and no method)")
		return fmt.Errorf("malformed JSON-RPC message: no ID and no method")
	}

	if msg.ID != nil {
		common.ServerLogger.Debug("Received request: method=%s, id=%v", msg.Method, msg.ID)
		return handler.HandleRequest(msg.Method, msg.ID, msg.Params)
	}

	common.ServerLogger.Debug("Received notification: method=%s", msg.Method)
	return handler.HandleNotification(msg.Method, msg.Params)
}

// NewRPCError creates a new RPCError with the specified code and message
func NewRPCError(code int, message string, data interface{}) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewMethodNotFoundError creates a method not found error (-32601)
func NewMethodNotFoundError(method string) *RPCError {
	return NewRPCError(MethodNotFound, "Method not found", method)
}

// NewInvalidParamsError creates an invalid params error (-32602)
func NewInvalidParamsError(data interface{}) *RPCError {
	return NewRPCError(InvalidParams, "Invalid params", data)
}

// NewInternalError creates an internal error (-32603)
func NewInternalError(data interface{}) *RPCError {
	return NewRPCError(InternalError, "Internal error", data)
}
