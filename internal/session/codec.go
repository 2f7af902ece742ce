package session

import (
	"encoding/json"
	"fmt"
)

var decoders = map[string]func() Command{
	SubmitSetup{}.Op():    func() Command { return &SubmitSetup{} },
	RenamePlayer{}.Op():   func() Command { return &RenamePlayer{} },
	AssignPosition{}.Op(): func() Command { return &AssignPosition{} },
	SetAdjustment{}.Op():  func() Command { return &SetAdjustment{} },
	SetBanker{}.Op():      func() Command { return &SetBanker{} },
	SetBet{}.Op():         func() Command { return &SetBet{} },
	SetWinner{}.Op():      func() Command { return &SetWinner{} },
	Calculate{}.Op():      func() Command { return &Calculate{} },
	NewRound{}.Op():       func() Command { return &NewRound{} },
	Undo{}.Op():           func() Command { return &Undo{} },
	Reset{}.Op():          func() Command { return &Reset{} },
	EditRound{}.Op():      func() Command { return &EditRound{} },
	DeleteRound{}.Op():    func() Command { return &DeleteRound{} },
	Rename{}.Op():         func() Command { return &Rename{} },
}

type envelope struct {
	Op string `json:"op"`
}

// DecodeCommand decodes a command object of the form
// {"op": "set-winner", "player_id": 2, "win_type": "jackpot"}.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	newCmd, ok := decoders[env.Op]
	if !ok {
		return nil, fmt.Errorf("decode command: unknown op %q", env.Op)
	}
	cmd := newCmd()
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Op, err)
	}
	return deref(cmd), nil
}

// EncodeCommand encodes cmd in the form read by DecodeCommand.
func EncodeCommand(cmd Command) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	op, _ := json.Marshal(cmd.Op())
	fields["op"] = op
	return json.Marshal(fields)
}

func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *SubmitSetup:
		return *c
	case *RenamePlayer:
		return *c
	case *AssignPosition:
		return *c
	case *SetAdjustment:
		return *c
	case *SetBanker:
		return *c
	case *SetBet:
		return *c
	case *SetWinner:
		return *c
	case *Calculate:
		return *c
	case *NewRound:
		return *c
	case *Undo:
		return *c
	case *Reset:
		return *c
	case *EditRound:
		return *c
	case *DeleteRound:
		return *c
	case *Rename:
		return *c
	}
	return cmd
}
