package database

import "testing"

func TestParseRateExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    int64
		wantErr bool
	}{
		{name: "seconds", expr: "rate(30 seconds)", want: 30},
		{name: "singular second", expr: "rate(1 second)", want: 1},
		{name: "minutes", expr: "rate(5 minutes)", want: 300},
		{name: "singular minute", expr: "rate(1 minute)", want: 60},
		{name: "hours", expr: "rate(2 hours)", want: 7200},
		{name: "singular hour", expr: "rate(1 hour)", want: 3600},
		{name: "case insensitive", expr: "RATE(5 Minutes)", want: 300},
		{name: "extra whitespace", expr: "  rate( 10   seconds )  ", want: 10},
		{name: "empty", expr: "", wantErr: true},
		{name: "unsupported unit", expr: "rate(5 fortnights)", wantErr: true},
		{name: "days not supported", expr: "rate(1 day)", wantErr: true},
		{name: "zero interval", expr: "rate(0 minutes)", wantErr: true},
		{name: "negative interval", expr: "rate(-1 minutes)", wantErr: true},
		{name: "missing unit", expr: "rate(5)", wantErr: true},
		{name: "cron expression", expr: "cron(0 12 * * ? *)", wantErr: true},
		{name: "trailing garbage", expr: "rate(5 minutes) extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRateExpression(tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.expr)
				}
				if KindOf(err) != KindInvalidScheduleExpression {
					t.Errorf("expected kind %s, got %s", KindInvalidScheduleExpression, KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d seconds, got %d", tt.want, got)
			}
		})
	}
}
