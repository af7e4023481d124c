// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mrelay

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContext(t *testing.T) {
	type args struct {
		ctx context.Context
		s   *Session
	}
	tests := []struct {
		name string
		args args
		want context.Context
	}{
		{
			name: "successfully created new context",
			args: args{
				ctx: context.Background(),
				s: &Session{
					ID:         "myID",
					ClientAddr: "127.0.0.1:40000",
					TargetAddr: "127.0.0.1:5432",
				},
			},
			want: context.WithValue(context.Background(), sessionKey{}, &Session{
				ID:         "myID",
				ClientAddr: "127.0.0.1:40000",
				TargetAddr: "127.0.0.1:5432",
			}),
		},
	}

	for _, tt := range tests {
		got := NewContext(tt.args.ctx, tt.args.s)
		assert.Equal(t, got, tt.want, fmt.Sprintf("%s: expected %v got %v\n", tt.name, tt.want, got))
	}
}

func TestFromContext(t *testing.T) {
	type args struct {
		ctx context.Context
	}
	tests := []struct {
		name  string
		args  args
		want  *Session
		want1 bool
	}{
		{
			name: "successfully get session from context",
			args: args{
				ctx: context.WithValue(context.TODO(), sessionKey{}, &Session{
					ID:         "myID",
					ClientAddr: "127.0.0.1:40000",
					TargetAddr: "127.0.0.1:5432",
				}),
			},
			want: &Session{
				ID:         "myID",
				ClientAddr: "127.0.0.1:40000",
				TargetAddr: "127.0.0.1:5432",
			},
			want1: true,
		},
		{
			name:  "session missing from context",
			args:  args{ctx: context.Background()},
			want:  nil,
			want1: false,
		},
	}

	for _, tt := range tests {
		got, gotOk := FromContext(tt.args.ctx)
		assert.Equal(t, got, tt.want, fmt.Sprintf("%s: expected %v got %v\n", tt.name, tt.want, got))
		assert.True(t, gotOk == tt.want1, fmt.Sprintf("%s: expected %v got %v\n", tt.name, tt.want1, gotOk))
	}
}
