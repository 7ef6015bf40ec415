package photron

import (
	"fmt"

	"github.com/nasa-jpl/photron/pdc"
)

// setVariableChannel selects a variable channel, 0 for off.  The channel
// carries its own rate and geometry, so everything is refreshed.  Must hold the lock.
func (c *Camera) setVariableChannel(ch int32) error {
	if !c.info.functions[pdc.FunctionVariable] {
		return ErrNotSupported
	}
	if ch < 0 || ch > pdc.MaxVariableChannels {
		return fmt.Errorf("%w: variable channel %d", ErrInvalidValue, ch)
	}
	if err := c.sdk.SetVariableChannel(c.devNo, c.childNo, uint32(ch)); err != nil {
		return c.fail(fmt.Sprintf("select variable channel %d", ch), err)
	}
	if err := c.updateResolution(); err != nil {
		return err
	}
	if err := c.readParameters(); err != nil {
		return err
	}
	c.getGeometry()
	return c.createDynamicEnums()
}

// loadVariableChannel mirrors the settings of channel ch into the VAR
// parameters, where they can be edited before VAR_APPLY.  Must hold the lock.
func (c *Camera) loadVariableChannel(ch int32) error {
	if ch < 1 || ch > pdc.MaxVariableChannels {
		return fmt.Errorf("%w: variable channel %d", ErrInvalidValue, ch)
	}
	if !c.connected || !c.info.functions[pdc.FunctionVariable] {
		return nil
	}
	info, err := c.sdk.VariableChannelInfo(c.devNo, uint32(ch))
	if err != nil {
		return c.fail(fmt.Sprintf("get variable channel %d", ch), err)
	}
	p := c.params
	p.SetInt(ParamVarRate, int32(info.Rate))
	p.SetInt(ParamVarWidth, int32(info.Width))
	p.SetInt(ParamVarHeight, int32(info.Height))
	p.SetInt(ParamVarXPos, int32(info.XPos))
	p.SetInt(ParamVarYPos, int32(info.YPos))
	return nil
}

// applyVariableChannel writes the edited VAR parameters to the edit
// channel.  If that channel is selected the camera settings are refreshed.
// Must hold the lock.
func (c *Camera) applyVariableChannel() error {
	if !c.info.functions[pdc.FunctionVariable] {
		return ErrNotSupported
	}
	p := c.params
	ch, _ := p.Int(ParamVarEditChannel)
	if ch < 1 || ch > pdc.MaxVariableChannels {
		return fmt.Errorf("%w: variable edit channel %d", ErrInvalidValue, ch)
	}
	get := func(name string) uint32 {
		v, _ := p.Int(name)
		if v < 0 {
			return 0
		}
		return uint32(v)
	}
	info := pdc.ChannelInfo{
		Rate:   get(ParamVarRate),
		Width:  get(ParamVarWidth),
		Height: get(ParamVarHeight),
		XPos:   get(ParamVarXPos),
		YPos:   get(ParamVarYPos),
	}
	if err := c.sdk.SetVariableChannelInfo(c.devNo, uint32(ch), info); err != nil {
		return c.fail(fmt.Sprintf("set variable channel %d", ch), err)
	}
	if uint32(ch) == c.set.varChannel {
		return c.setVariableChannel(ch)
	}
	return nil
}
