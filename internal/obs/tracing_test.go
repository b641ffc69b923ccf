package obs

import (
	"context"
	"testing"
)

func TestInitTracerWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "coaching-api", "test", "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
