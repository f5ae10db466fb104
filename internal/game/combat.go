package game

// Combat resolution. Every handler here is a silent no-op when the room or
// participant does not exist: late messages referencing state that a
// disconnect already tore down are expected traffic, not protocol errors.

// Attack initiates an attack for the participant. Gated on the cooldown: an
// attack while AttackCooldown > 0 changes nothing and broadcasts nothing.
func (e *Engine) Attack(roomID, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.registry.Get(roomID)
	if room == nil {
		return
	}
	p, ok := room.Players[connID]
	if !ok {
		return
	}
	if p.AttackCooldown > 0 {
		return
	}

	p.IsAttacking = true
	p.AttackAnimationProgress = 0
	p.AttackCooldown = e.cfg.AttackCooldownTicks
	room.broadcast()
}

// SetBlocking records the participant's latest block intent. Engaging a
// block restarts its animation; releasing leaves the progress untouched so
// the client can play out the lowering animation from where it was.
func (e *Engine) SetBlocking(roomID, connID string, blocking bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.registry.Get(roomID)
	if room == nil {
		return
	}
	p, ok := room.Players[connID]
	if !ok {
		return
	}

	if blocking && !p.IsBlocking {
		p.BlockAnimationProgress = 0
	}
	p.IsBlocking = blocking
	room.broadcast()
}

// ApplyDamage applies damage from attacker to target. Negative damage is
// clamped to zero, a blocking target absorbs the hit entirely, and health
// never drops below zero. The hit that brings a participant to zero health
// emits a single gameOver naming the attacker and reverts the room to
// waiting so the pair can rematch without rejoining.
func (e *Engine) ApplyDamage(roomID, attackerID, targetID string, damage int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.registry.Get(roomID)
	if room == nil {
		return
	}
	target, ok := room.Players[targetID]
	if !ok {
		return
	}

	if damage < 0 {
		damage = 0
	}

	wasAlive := target.Health > 0
	if !target.IsBlocking {
		target.Health = max(0, target.Health-damage)
	}

	if wasAlive && target.Health == 0 {
		room.Started = false
		e.log.Infow("knockout", "room", roomID, "winner", attackerID, "loser", targetID)
		room.emit(EventGameOver, GameOverPayload{Winner: attackerID})
		if e.OnKnockout != nil {
			e.OnKnockout(roomID, attackerID, targetID)
		}
	}

	room.broadcast()
}
