package web

// Action log dashboard: live status strip + a stream of action cards.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>DCAgent</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:flex-start;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    #app {
      width:min(960px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
      display:flex;
      flex-direction:column;
      gap:1.5rem;
    }
    header { display:flex; justify-content:space-between; align-items:flex-start; gap:1rem; }
    .eyebrow {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.2em;
      margin:0;
    }
    .status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid var(--ink);
      padding:.4rem .9rem;
      background:#ffffff;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .price-strip {
      display:flex;
      gap:.6rem;
      flex-wrap:wrap;
    }
    .pill {
      font-size:.6rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      padding:.35rem .7rem;
      border:2px solid var(--ink);
      background:#fefefe;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .empty-state {
      border:2px dashed var(--ink-soft);
      padding:2rem;
      text-align:center;
      font-size:.8rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      color:var(--ink-mid);
    }
    .action-card {
      border:2px solid var(--ink);
      padding:1rem;
      background:#fff;
      box-shadow:4px 4px 0 rgba(0,0,0,.12);
      font-size:.7rem;
      line-height:1.4;
    }
    .action-header {
      display:flex;
      justify-content:space-between;
      align-items:center;
      margin-bottom:.8rem;
      padding-bottom:.8rem;
      border-bottom:1px dashed var(--ink-soft);
    }
    .action-kind {
      font-weight:700;
      text-transform:uppercase;
      letter-spacing:.1em;
    }
    .action-kind.scheduled_buy { color:#1b9aaa; }
    .action-kind.dip_buy { color:#ff7f11; }
    .action-kind.yield_claim { color:#3c91e6; }
    .action-kind.yield_stake { color:#8e3b46; }
    .action-time { font-size:.6rem; color:var(--ink-mid); }
    .outcome { font-weight:700; }
    .outcome.ok { color:#1b9aaa; }
    .outcome.fail { color:#d7263d; }
    .action-meta { margin-top:.8rem; display:flex; flex-wrap:wrap; gap:.4rem; }
    .meta-pill {
      font-size:.55rem;
      padding:.25rem .5rem;
      background:var(--panel);
      border:1px solid var(--ink-soft);
    }
    .reasoning {
      margin-top:.8rem;
      font-size:.65rem;
      color:var(--ink-mid);
      font-style:italic;
    }
    @media (max-width:640px) {
      body { padding:1rem; }
      #app { padding:1.2rem; }
      header { flex-direction:column; align-items:flex-start; }
    }
  </style>
</head>
<body>
  <div id="app">
    <header>
      <p class="eyebrow">dcagent dashboard</p>
      <div id="sse-status" class="status">Connecting…</div>
    </header>
    <div id="price-strip" class="price-strip"></div>
    <section id="actions">
      <div id="emptyState" class="empty-state">Waiting for actions…</div>
    </section>
  </div>
<script>
const statusEl = document.getElementById('sse-status');
const actionsEl = document.getElementById('actions');
const priceStrip = document.getElementById('price-strip');
const emptyState = document.getElementById('emptyState');
const MAX_ACTIONS = 100;

const formatTime = (ts) => {
  if(!ts) return '';
  const date = new Date(ts);
  if(Number.isNaN(date.getTime())) return '';
  return date.toLocaleString([], { hour12:false });
};

function pill(text){
  const el = document.createElement('span');
  el.className = 'meta-pill';
  el.textContent = text;
  return el;
}

function createActionCard(record){
  const card = document.createElement('div');
  card.className = 'action-card';

  const header = document.createElement('div');
  header.className = 'action-header';

  const kind = document.createElement('div');
  kind.className = 'action-kind ' + record.kind;
  kind.textContent = record.kind.replace(/_/g, ' ');

  const time = document.createElement('div');
  time.className = 'action-time';
  time.textContent = formatTime(record.time);

  header.append(kind, time);
  card.appendChild(header);

  const outcome = document.createElement('div');
  if(record.tx_hash){
    outcome.className = 'outcome ok';
    outcome.textContent = 'executed ' + record.tx_hash.slice(0, 18) + '…';
  } else {
    outcome.className = 'outcome fail';
    outcome.textContent = 'failed: ' + (record.failure_reason || 'unknown');
  }
  card.appendChild(outcome);

  const meta = document.createElement('div');
  meta.className = 'action-meta';
  if(record.requested_amount){ meta.appendChild(pill('USD ' + record.requested_amount)); }
  if(record.executed_amount && record.executed_amount !== '0'){ meta.appendChild(pill('BTC ' + record.executed_amount)); }
  if(record.price){ meta.appendChild(pill('@ ' + record.price)); }
  if(record.advice && record.advice.sentiment){ meta.appendChild(pill(record.advice.sentiment)); }
  if(meta.children.length > 0){ card.appendChild(meta); }

  if(record.advice && record.advice.reasoning){
    const reasoning = document.createElement('div');
    reasoning.className = 'reasoning';
    reasoning.textContent = '"' + record.advice.reasoning + '"';
    card.appendChild(reasoning);
  }

  return card;
}

function connectSSE(){
  const source = new EventSource('/actions/stream');
  statusEl.textContent = 'Status: streaming';
  source.addEventListener('action', (event) => {
    try{
      const record = JSON.parse(event.data);
      if(emptyState && emptyState.parentNode){ emptyState.remove(); }
      actionsEl.insertBefore(createActionCard(record), actionsEl.firstChild);
      while(actionsEl.children.length > MAX_ACTIONS){
        actionsEl.removeChild(actionsEl.lastChild);
      }
    }catch(err){
      console.error('action parse', err);
    }
  });
  source.addEventListener('error', () => {
    statusEl.textContent = 'Reconnecting…';
    source.close();
    setTimeout(connectSSE, 2000);
  });
}

async function pollStatus(){
  try{
    const resp = await fetch('/status');
    const status = await resp.json();
    priceStrip.replaceChildren();
    if(status.price){
      const price = document.createElement('span');
      price.className = 'pill';
      price.textContent = 'BTC ' + status.price + ' (' + (status.price_source || '?') + ')';
      priceStrip.appendChild(price);
    }
    const samples = document.createElement('span');
    samples.className = 'pill';
    samples.textContent = 'samples ' + status.samples;
    priceStrip.appendChild(samples);
  }catch(err){
    console.error('status poll', err);
  }
}

connectSSE();
pollStatus();
setInterval(pollStatus, 10000);
</script>
</body>
</html>`
